package clickup

// Export internal functions for testing

var (
	IsActive       = isActive
	LatestActive   = latestActive
	ExtractMembers = extractMembers
	ExtractEntries = extractEntries
	TaskNameOf     = taskName
)

type TeamResponse = teamResponse
type EntriesResponse = entriesResponse
