package feed

import (
	"encoding/json"
	"strings"

	"github.com/lcalzada-xor/cvelens/internal/core/domain"
	"github.com/lcalzada-xor/cvelens/internal/core/services/textnorm"
)

// Metric families in order of preference.
var metricPreference = []string{"cvssMetricV31", "cvssMetricV30", "cvssMetricV2", "cvssMetricV40"}

type feedDocument struct {
	Vulnerabilities []json.RawMessage `json:"vulnerabilities"`
	CVEItems        []json.RawMessage `json:"CVE_Items"`
}

type wrappedItem struct {
	CVE json.RawMessage `json:"cve"`
}

type langString struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type cveItem struct {
	ID             string                   `json:"id"`
	Meta           legacyMeta               `json:"CVE_data_meta"`
	Published      string                   `json:"published"`
	Descriptions   []langString             `json:"descriptions"`
	Metrics        map[string][]metricEntry `json:"metrics"`
	Weaknesses     []weakness               `json:"weaknesses"`
	Configurations []configuration          `json:"configurations"`
}

type legacyMeta struct {
	ID string `json:"ID"`
}

type weakness struct {
	Description []langString `json:"description"`
}

type configuration struct {
	Nodes []struct {
		CPEMatch []struct {
			Criteria string `json:"criteria"`
		} `json:"cpeMatch"`
	} `json:"nodes"`
}

type metricEntry struct {
	CVSSData struct {
		BaseScore *float64 `json:"baseScore"`
	} `json:"cvssData"`
}

// splitItems returns the per-CVE objects of a feed document, unwrapping {"cve": ...}.
func splitItems(data []byte) ([]json.RawMessage, error) {
	var doc feedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	items := doc.Vulnerabilities
	if len(items) == 0 {
		items = doc.CVEItems
	}
	out := make([]json.RawMessage, 0, len(items))
	for _, it := range items {
		var w wrappedItem
		if err := json.Unmarshal(it, &w); err == nil && len(w.CVE) > 0 {
			out = append(out, w.CVE)
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// ParseItem maps one NVD CVE object to a record: English description (else the first),
// first base score by metric preference with its band, first weakness, vendor and product
// from the first CPE criteria, and the publish date as YYYY-MM-DD.
func ParseItem(raw json.RawMessage) (domain.CVERecord, error) {
	var it cveItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return domain.CVERecord{}, err
	}

	rec := domain.CVERecord{ID: it.ID}
	if rec.ID == "" {
		rec.ID = it.Meta.ID
	}
	if rec.ID == "" {
		return domain.CVERecord{}, ErrMissingID
	}

	rec.Description = description(it.Descriptions)

	for _, family := range metricPreference {
		entries := it.Metrics[family]
		if len(entries) == 0 || entries[0].CVSSData.BaseScore == nil {
			continue
		}
		s := *entries[0].CVSSData.BaseScore
		rec.CVSSScore = &s
		if band, ok := domain.BandFromScore(s); ok {
			rec.SeverityBand = band
		}
		break
	}

	if len(it.Weaknesses) > 0 && len(it.Weaknesses[0].Description) > 0 {
		rec.CWE = it.Weaknesses[0].Description[0].Value
	}

	if len(it.Configurations) > 0 && len(it.Configurations[0].Nodes) > 0 &&
		len(it.Configurations[0].Nodes[0].CPEMatch) > 0 {
		parts := strings.Split(it.Configurations[0].Nodes[0].CPEMatch[0].Criteria, ":")
		if len(parts) > 4 {
			rec.Vendor, rec.Product = parts[3], parts[4]
		}
	}

	if d, ok := textnorm.NormalizeDate(it.Published); ok {
		rec.PublishDate = d
	}
	return rec, nil
}

func description(ds []langString) string {
	for _, d := range ds {
		if d.Lang == "en" {
			return d.Value
		}
	}
	if len(ds) > 0 {
		return ds[0].Value
	}
	return ""
}
