package verdicts

import (
	"fmt"
	"strings"
	"time"
)

// Record is one extraction event: the verdict found in a response file.
type Record struct {
	Directory string `json:"directory"`
	Filename  string `json:"filename"`
	Verdict   string `json:"verdict"`
}

// StoredRecord is a Record as mirrored into a database ledger.
type StoredRecord struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batch_id"`
	Record      Record    `json:"record"`
	CollectedAt time.Time `json:"collected_at"`
}

// GroupKey identifies the problem a record refers to, e.g. biology_4.
type GroupKey struct {
	Subject string `json:"subject"`
	ID      int    `json:"id"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s_%d", k.Subject, k.ID)
}

// Title is the upper-cased key used in report section headers.
func (k GroupKey) Title() string {
	return strings.ToUpper(k.String())
}

// Less orders keys by subject name, then numerically by id.
func (k GroupKey) Less(o GroupKey) bool {
	if k.Subject != o.Subject {
		return k.Subject < o.Subject
	}
	return k.ID < o.ID
}

// Group holds the records of one key in log order.
type Group struct {
	Key     GroupKey `json:"key"`
	Records []Record `json:"records"`
}
