package profile

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelpilot-ai/platform/pkg/common/models"
)

// Column kinds recognized by the builder.
const (
	kindNumeric     = "numeric"
	kindCategorical = "categorical"
	kindText        = "text"
	kindDatetime    = "datetime"
)

// Build derives the fixed-shape statistical summary from processed rows.
// targetColumn may be empty for unlabeled datasets; sizeBytes is the
// processed dataset's on-disk size.
func Build(rows []map[string]interface{}, targetColumn string, sizeBytes int64) models.DatasetProfile {
	p := models.DatasetProfile{
		NumSamples: len(rows),
		SizeMB:     float64(sizeBytes) / (1024 * 1024),
	}
	if len(rows) == 0 {
		return p
	}

	columns := columnNames(rows)
	var totalCells, missingCells int
	classCounts := map[string]int{}

	for _, name := range columns {
		if name == targetColumn {
			continue
		}
		p.NumFeatures++
		switch inferKind(rows, name) {
		case kindNumeric:
			p.NumericFeatures++
		case kindDatetime:
			p.DatetimeFeatures++
		case kindText:
			p.TextFeatures++
		default:
			p.CategoricalFeatures++
		}
	}

	for _, row := range rows {
		for _, name := range columns {
			if name == targetColumn {
				continue
			}
			totalCells++
			if isMissing(row[name]) {
				missingCells++
			}
		}
		if targetColumn != "" {
			if v := row[targetColumn]; !isMissing(v) {
				classCounts[stringify(v)]++
			}
		}
	}

	if totalCells > 0 {
		p.MissingRatio = float64(missingCells) / float64(totalCells)
	}
	if p.NumSamples > 0 {
		p.DimensionalityRatio = float64(p.NumFeatures) / float64(p.NumSamples)
	}
	if len(classCounts) > 0 {
		n := len(classCounts)
		p.NumClasses = &n
		minCount, maxCount := -1, 0
		for _, c := range classCounts {
			if minCount < 0 || c < minCount {
				minCount = c
			}
			if c > maxCount {
				maxCount = c
			}
		}
		if maxCount > 0 {
			ratio := float64(minCount) / float64(maxCount)
			p.ClassImbalanceRatio = &ratio
		}
	}
	return p
}

func columnNames(rows []map[string]interface{}) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, row := range rows {
		for name := range row {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names
}

// inferKind samples up to 100 non-missing values of one column.
func inferKind(rows []map[string]interface{}, name string) string {
	var numeric, datetime, long, total int
	for _, row := range rows {
		v := row[name]
		if isMissing(v) {
			continue
		}
		total++
		switch val := v.(type) {
		case float64, float32, int, int64, int32:
			numeric++
		case time.Time:
			datetime++
		case string:
			s := strings.TrimSpace(val)
			if _, err := strconv.ParseFloat(s, 64); err == nil {
				numeric++
			} else if looksLikeTimestamp(s) {
				datetime++
			} else if len(s) > 64 || strings.Count(s, " ") > 5 {
				long++
			}
		}
		if total >= 100 {
			break
		}
	}
	if total == 0 {
		return kindCategorical
	}
	switch {
	case numeric*10 >= total*9:
		return kindNumeric
	case datetime*10 >= total*9:
		return kindDatetime
	case long*2 >= total:
		return kindText
	default:
		return kindCategorical
	}
}

func looksLikeTimestamp(s string) bool {
	formats := []string{time.RFC3339, "2006-01-02", "2006-01-02 15:04:05", "01/02/2006"}
	for _, f := range formats {
		if _, err := time.Parse(f, s); err == nil {
			return true
		}
	}
	return false
}

func isMissing(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(strings.ToLower(s))
		return trimmed == "" || trimmed == "na" || trimmed == "n/a" || trimmed == "null" || trimmed == "nan"
	}
	return false
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
