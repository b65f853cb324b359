package scoring

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ktakita1011/MiniKaggle/internal/metric"
)

var ErrFileFormat = errors.New("file format error")

// AnswerSet is the held-out answer file, partitioned by its is_public column
// into the public and private ground-truth values. Row order is preserved:
// uploaded prediction files are aligned positionally, row i against row i.
type AnswerSet struct {
	column   string
	isPublic []bool
	public   []float64
	private  []float64
}

// LoadAnswerSet reads the held-out answer CSV. It requires the configured
// answer column and an is_public column (1 = public, 0 = private).
func LoadAnswerSet(path, answerColumn string) (*AnswerSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open answer set: %w", err)
	}
	defer f.Close()
	return ReadAnswerSet(f, answerColumn)
}

func ReadAnswerSet(r io.Reader, answerColumn string) (*AnswerSet, error) {
	header, records, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	answerIdx := indexOf(header, answerColumn)
	if answerIdx < 0 {
		return nil, fmt.Errorf("%w: answer set is missing column %q", ErrFileFormat, answerColumn)
	}
	publicIdx := indexOf(header, "is_public")
	if publicIdx < 0 {
		return nil, fmt.Errorf("%w: answer set is missing column %q", ErrFileFormat, "is_public")
	}

	as := &AnswerSet{column: answerColumn}
	for i, rec := range records {
		val, err := strconv.ParseFloat(rec[answerIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: non-numeric value %q in column %q", ErrFileFormat, i+1, rec[answerIdx], answerColumn)
		}
		flag, err := strconv.Atoi(rec[publicIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: non-integer value %q in column %q", ErrFileFormat, i+1, rec[publicIdx], "is_public")
		}
		if flag != 0 {
			as.isPublic = append(as.isPublic, true)
			as.public = append(as.public, val)
		} else {
			as.isPublic = append(as.isPublic, false)
			as.private = append(as.private, val)
		}
	}

	// Both partitions must be non-empty to be scorable.
	if len(as.public) == 0 {
		return nil, fmt.Errorf("%w: answer set has no public rows", ErrFileFormat)
	}
	if len(as.private) == 0 {
		return nil, fmt.Errorf("%w: answer set has no private rows", ErrFileFormat)
	}
	return as, nil
}

// Rows is the total held-out row count.
func (as *AnswerSet) Rows() int { return len(as.isPublic) }

// Scorer computes a (public, private) score pair for uploaded prediction
// files. It is a pure function of the answer set, the metric and the upload;
// persistence is the caller's responsibility.
type Scorer struct {
	answers *AnswerSet
	kind    metric.Kind
}

func NewScorer(answers *AnswerSet, kind metric.Kind) *Scorer {
	return &Scorer{answers: answers, kind: kind}
}

// Score parses an uploaded prediction CSV and evaluates it against the public
// and private partitions of the answer set. The upload must carry the answer
// column and exactly as many rows as the answer set, in the same order.
func (s *Scorer) Score(r io.Reader) (publicScore, privateScore float64, err error) {
	header, records, err := readCSV(r)
	if err != nil {
		return 0, 0, err
	}

	idx := indexOf(header, s.answers.column)
	if idx < 0 {
		return 0, 0, fmt.Errorf("%w: upload is missing column %q", ErrFileFormat, s.answers.column)
	}
	if len(records) != s.answers.Rows() {
		return 0, 0, fmt.Errorf("%w: upload has %d rows, answer set has %d", ErrFileFormat, len(records), s.answers.Rows())
	}

	publicPred := make([]float64, 0, len(s.answers.public))
	privatePred := make([]float64, 0, len(s.answers.private))
	for i, rec := range records {
		val, err := strconv.ParseFloat(rec[idx], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: row %d: non-numeric value %q in column %q", ErrFileFormat, i+1, rec[idx], s.answers.column)
		}
		if s.answers.isPublic[i] {
			publicPred = append(publicPred, val)
		} else {
			privatePred = append(privatePred, val)
		}
	}

	publicScore, err = metric.Evaluate(publicPred, s.answers.public, s.kind)
	if err != nil {
		return 0, 0, fmt.Errorf("public partition: %w", err)
	}
	privateScore, err = metric.Evaluate(privatePred, s.answers.private, s.kind)
	if err != nil {
		return 0, 0, fmt.Errorf("private partition: %w", err)
	}
	return publicScore, privateScore, nil
}

func readCSV(r io.Reader) (header []string, records [][]string, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err = cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: missing CSV header", ErrFileFormat)
	}

	records, err = cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}
	return header, records, nil
}

func indexOf(header []string, column string) int {
	for i, h := range header {
		if h == column {
			return i
		}
	}
	return -1
}
