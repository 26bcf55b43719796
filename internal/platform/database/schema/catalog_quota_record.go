// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CatalogQuotaRecordTable represents the 'catalog.quota_record' table.
type CatalogQuotaRecordTable struct {
	Table           string
	RecordDate      string
	Provider        string
	WordsDownloaded string
	WordLimit       string
	UpdatedAt       string
}

// CatalogQuotaRecord is the schema definition for catalog.quota_record.
var CatalogQuotaRecord = CatalogQuotaRecordTable{
	Table:           "catalog.quota_record",
	RecordDate:      "record_date",
	Provider:        "provider",
	WordsDownloaded: "words_downloaded",
	WordLimit:       "word_limit",
	UpdatedAt:       "updated_at",
}

func (t CatalogQuotaRecordTable) Columns() []string {
	return []string{t.RecordDate, t.Provider, t.WordsDownloaded, t.WordLimit, t.UpdatedAt}
}
