package common

const (
	// UserAgent identifies the aggregator to feed hosts and article sites.
	UserAgent = "RoundtablePA/1.0 (News Aggregator)"

	RedisKeyIngestionRunLock = "ingestion.run.lock"

	TriggerHTTP  = "http"
	TriggerCLI   = "cli"
	TriggerWatch = "watch"
)
