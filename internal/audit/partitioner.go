// Package audit assigns every record of a run to exactly one of the four
// output partitions.
package audit

import (
	"fmt"

	"github.com/ppiankov/canonica/internal/model"
	"github.com/ppiankov/canonica/internal/recovery"
)

// Partitioner routes accepted records and recovery results to partitions.
type Partitioner struct{}

// NewPartitioner creates a new partitioner
func NewPartitioner() *Partitioner {
	return &Partitioner{}
}

// Partition builds the four partitions. accepted are the records that
// passed the gate on first evaluation; results are the recovery outcomes
// of every record that did not.
func (p *Partitioner) Partition(accepted []*model.Record, results []recovery.Result) *model.Partitions {
	parts := &model.Partitions{
		ValidOriginal: append([]*model.Record(nil), accepted...),
	}

	for _, res := range results {
		switch res.Outcome {
		case recovery.OutcomeRecovered:
			parts.ValidRecovered = append(parts.ValidRecovered, res.Record)
		case recovery.OutcomeDiscarded:
			parts.DiscardedEmpty = append(parts.DiscardedEmpty, res.Record)
		default:
			parts.Rejected = append(parts.Rejected, res.Record)
		}
	}

	return parts
}

// Check verifies that the partitions hold exactly input records and that
// no record sequence number appears twice.
func Check(input int, parts *model.Partitions) error {
	if total := parts.Total(); total != input {
		return fmt.Errorf("partition totality: %d input records, %d partitioned", input, total)
	}

	seen := make(map[int]model.Partition, input)
	for _, name := range model.AllPartitions {
		for _, r := range parts.Get(name) {
			if prev, dup := seen[r.Seq]; dup {
				return fmt.Errorf("partition overlap: record %d in %s and %s", r.Seq, prev, name)
			}
			seen[r.Seq] = name
		}
	}
	return nil
}
