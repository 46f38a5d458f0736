package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"vocab-quiz/internal/domain"
	"vocab-quiz/internal/quiz"
)

// VocabLoader reads the vocabulary from a local file. The format follows the
// extension: .json and .yaml hold a list of {id, word, pos, meaning};
// .csv and .xlsx hold word, pos, meaning columns; anything else is read as
// bulk lines of the form "Word (pos) - meaning".
type VocabLoader struct {
	path  string
	sheet string
}

func NewVocabLoader(path string) *VocabLoader {
	return &VocabLoader{path: path, sheet: "Sheet1"}
}

func (l *VocabLoader) LoadVocab(_ context.Context) ([]domain.Question, error) {
	var (
		items []domain.Question
		err   error
	)
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".json":
		items, err = l.readJSON()
	case ".yaml", ".yml":
		items, err = l.readYAML()
	case ".csv":
		items, err = l.readCSV()
	case ".xlsx":
		items, err = l.readExcel()
	default:
		items, err = l.readBulk()
	}
	if err != nil {
		return nil, fmt.Errorf("load vocab file %s: %w", l.path, err)
	}
	return assignIDs(items), nil
}

func (l *VocabLoader) readJSON() ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var items []domain.Question
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type yamlQuestion struct {
	ID      string `yaml:"id"`
	Word    string `yaml:"word"`
	Pos     string `yaml:"pos"`
	Meaning string `yaml:"meaning"`
}

func (l *VocabLoader) readYAML() ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var raw []yamlQuestion
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	items := make([]domain.Question, 0, len(raw))
	for _, r := range raw {
		items = append(items, domain.Question{ID: domain.ID(r.ID), Word: r.Word, Pos: r.Pos, Meaning: r.Meaning})
	}
	return items, nil
}

func (l *VocabLoader) readCSV() ([]domain.Question, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (l *VocabLoader) readExcel() ([]domain.Question, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(l.sheet)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (l *VocabLoader) readBulk() ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	return ParseBulk(data), nil
}

// fromRows maps word, pos, meaning columns. A leading "word" header row is skipped.
func fromRows(rows [][]string) []domain.Question {
	items := make([]domain.Question, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "word") {
			continue
		}
		cell := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		if cell(0) == "" || cell(2) == "" {
			continue
		}
		items = append(items, domain.Question{Word: cell(0), Pos: quiz.NormalizePos(cell(1)), Meaning: cell(2)})
	}
	return items
}

var (
	bulkWithPos = regexp.MustCompile(`^\s*([A-Za-z\-' ]+)\s*\(([^)]+)\)\s*[-–—]\s*(.+)$`)
	bulkNoPos   = regexp.MustCompile(`^\s*([A-Za-z\-' ]+)\s*[-–—]\s*(.+)$`)
)

// ParseBulk reads lines like "Brave (adj.) – meaning". Lines without a part
// of speech ("Brave - meaning") are kept with an empty pos; anything else is
// ignored. Repeated word/meaning pairs are dropped.
func ParseBulk(data []byte) []domain.Question {
	var items []domain.Question
	seen := map[[2]string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var q domain.Question
		if m := bulkWithPos.FindStringSubmatch(line); m != nil {
			q = domain.Question{Word: strings.TrimSpace(m[1]), Pos: quiz.NormalizePos(m[2]), Meaning: strings.TrimSpace(m[3])}
		} else if m := bulkNoPos.FindStringSubmatch(line); m != nil {
			q = domain.Question{Word: strings.TrimSpace(m[1]), Meaning: strings.TrimSpace(m[2])}
		} else {
			continue
		}
		key := [2]string{quiz.Canon(q.Word), q.Meaning}
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, q)
	}
	return items
}

// assignIDs numbers entries without an id after the highest numeric id present.
func assignIDs(items []domain.Question) []domain.Question {
	var next int64
	for _, q := range items {
		if n, err := strconv.ParseInt(q.ID.String(), 10, 64); err == nil && n > next {
			next = n
		}
	}
	for i := range items {
		if items[i].ID == "" {
			next++
			items[i].ID = domain.ID(strconv.FormatInt(next, 10))
		}
	}
	return items
}
