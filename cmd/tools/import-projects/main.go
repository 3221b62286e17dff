package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"silverland-assistant/internal/config"
	"silverland-assistant/internal/logger"
	"silverland-assistant/internal/model"
	"silverland-assistant/internal/repository"

	"go.uber.org/zap"
)

// Header aliases accepted in catalog CSV exports. Keys are normalized:
// lowercased, spaces and underscores removed.
var headerAliases = map[string]string{
	"projectname":      "name",
	"name":             "name",
	"city":             "city",
	"country":          "country",
	"developername":    "developer_name",
	"developer":        "developer_name",
	"noofbedrooms":     "no_of_bedrooms",
	"bedrooms":         "no_of_bedrooms",
	"bathrooms":        "bathrooms",
	"unittype":         "unit_type",
	"completionstatus": "completion_status",
	"priceusd":         "price_usd",
	"price":            "price_usd",
	"areasqm":          "area_sqm",
	"area":             "area_sqm",
	"propertytype":     "property_type",
	"completiondate":   "completion_date",
	"features":         "features",
	"facilities":       "facilities",
	"description":      "description",
}

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "path to the projects CSV file")
	flag.Parse()

	if filePath == "" {
		log.Fatal("usage: import-projects -file <projects.csv>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, "console")
	defer zlog.Sync()

	repo, err := repository.NewProjectRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
		zlog,
	)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	f, err := os.Open(filePath)
	if err != nil {
		zlog.Fatal("Failed to open CSV file", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	created, updated, skipped, err := importCSV(context.Background(), repo, f, zlog)
	if err != nil {
		zlog.Fatal("Import failed", zap.Error(err))
	}

	zlog.Info("Import complete",
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Int("skipped", skipped),
	)
}

func importCSV(ctx context.Context, repo *repository.ProjectRepository, r io.Reader, zlog *zap.Logger) (created, updated, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, 0, err
	}

	// Map column index -> canonical field name. Unknown columns are ignored.
	fields := make(map[int]string, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if canon, ok := headerAliases[key]; ok {
			fields[i] = canon
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			zlog.Warn("Skipping malformed row", zap.Int("line", line), zap.Error(err))
			skipped++
			continue
		}

		row := map[string]string{}
		for i, v := range record {
			if canon, ok := fields[i]; ok {
				row[canon] = strings.TrimSpace(v)
			}
		}

		project := rowToProject(row)
		if project.Name == "" || project.City == "" {
			zlog.Warn("Skipping row without name or city", zap.Int("line", line))
			skipped++
			continue
		}

		wasCreated, err := repo.UpsertProject(ctx, project)
		if err != nil {
			zlog.Warn("Skipping row after database error",
				zap.Int("line", line),
				zap.String("project", project.Name),
				zap.Error(err),
			)
			skipped++
			continue
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	return created, updated, skipped, nil
}

func rowToProject(row map[string]string) *model.Project {
	p := &model.Project{
		Name:             row["name"],
		City:             row["city"],
		Country:          row["country"],
		DeveloperName:    row["developer_name"],
		UnitType:         row["unit_type"],
		CompletionStatus: row["completion_status"],
		PropertyType:     row["property_type"],
		Features:         row["features"],
		Facilities:       row["facilities"],
		Description:      row["description"],
	}

	p.Bedrooms = parseIntField(row["no_of_bedrooms"])
	p.Bathrooms = parseIntField(row["bathrooms"])
	p.PriceUSD = parseFloatField(row["price_usd"])
	p.AreaSqm = parseFloatField(row["area_sqm"])
	p.CompletionDate = parseDateField(row["completion_date"])

	return p
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	h = strings.ReplaceAll(h, "(usd)", "usd")
	h = strings.ReplaceAll(h, "(sqm)", "sqm")
	return h
}

// parseIntField reads an integer, tolerating decorations like "3 BR".
// Unparseable values import as NULL rather than failing the row.
func parseIntField(s string) *int {
	s = cleanNumeric(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		v = int(f)
	}
	return &v
}

func parseFloatField(s string) *float64 {
	s = cleanNumeric(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseDateField(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "Jan 2006", "2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// cleanNumeric keeps digits, sign and decimal point, dropping currency
// symbols, thousands separators and unit suffixes.
func cleanNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
