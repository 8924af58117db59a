package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/credence/internal/model"
)

const maxImportLine = 4 << 20

// Importer is what an import writes to
type Importer interface {
	PostWriter
	FactCheckWriter
}

// ImportRecord is one line of an import file: a post and optional fact-checks
type ImportRecord struct {
	model.Post
	FactChecks []model.FactCheckRecord `json:"fact_checks,omitempty"`
}

// ImportReport counts what an import did
type ImportReport struct {
	Lines      int `json:"lines"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Invalid    int `json:"invalid"`
	FactChecks int `json:"fact_checks"`
}

// ImportJSONL reads one JSON record per line. Blank lines and lines starting
// with "#" are skipped. Invalid records are logged and skipped; posts whose
// link is already stored are counted as duplicates and their fact-checks ignored.
func ImportJSONL(ctx context.Context, r io.Reader, dst Importer, log logrus.FieldLogger) (ImportReport, error) {
	var report ImportReport

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Lines++

		var rec ImportRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			report.Invalid++
			log.WithFields(logrus.Fields{"line": lineNo, "error": err}).Warn("skipping malformed line")
			continue
		}
		rec.ID = 0
		if err := rec.Post.Validate(); err != nil {
			report.Invalid++
			log.WithFields(logrus.Fields{"line": lineNo, "error": err}).Warn("skipping invalid post")
			continue
		}

		id, created, err := dst.InsertPost(ctx, &rec.Post)
		if err != nil {
			return report, &model.PersistenceError{Op: "insert post", Err: err}
		}
		if !created {
			report.Duplicates++
			continue
		}
		report.Inserted++

		records, err := validFactChecks(id, rec.FactChecks)
		if err != nil {
			log.WithFields(logrus.Fields{"line": lineNo, "post_id": id, "error": err}).Warn("skipping invalid fact-checks")
			continue
		}
		if len(records) == 0 {
			continue
		}
		if err := dst.ReplaceFactChecks(ctx, id, records); err != nil {
			return report, &model.PersistenceError{Op: "replace fact-checks", Err: err}
		}
		report.FactChecks += len(records)
	}

	if err := scanner.Err(); err != nil {
		return report, fmt.Errorf("read import: %w", err)
	}
	return report, nil
}

func validFactChecks(postID int64, in []model.FactCheckRecord) ([]model.FactCheckRecord, error) {
	out := make([]model.FactCheckRecord, 0, len(in))
	for _, r := range in {
		r.ID = 0
		r.PostID = postID
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
