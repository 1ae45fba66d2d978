package domain

// EnrichCurated attaches the data-source provenance tag to an accepted record
// and stamps the processing time. Pure and total; applies only to records the
// aggregation policy accepted.
func EnrichCurated(rec NormalizedRecord, dataSource string) CuratedRecord {
	return CuratedRecord{
		NormalizedRecord: rec,
		DataSource:       dataSource,
		ProcessedAt:      clock.Now().UTC(),
	}
}
