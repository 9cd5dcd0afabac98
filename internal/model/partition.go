package model

// Partition names one of the four disjoint audit outputs.
type Partition string

const (
	PartitionValidOriginal  Partition = "valid_original"
	PartitionValidRecovered Partition = "valid_recovered"
	PartitionRejected       Partition = "rejected"
	PartitionDiscardedEmpty Partition = "discarded_empty"
)

// AllPartitions lists partitions in output order.
var AllPartitions = []Partition{
	PartitionValidOriginal,
	PartitionValidRecovered,
	PartitionRejected,
	PartitionDiscardedEmpty,
}

// Partitions is the final disposition of every input record.
type Partitions struct {
	ValidOriginal  []*Record `json:"valid_original"`
	ValidRecovered []*Record `json:"valid_recovered"`
	Rejected       []*Record `json:"rejected"`
	DiscardedEmpty []*Record `json:"discarded_empty"`
}

// Get returns the records of one partition.
func (p *Partitions) Get(name Partition) []*Record {
	switch name {
	case PartitionValidOriginal:
		return p.ValidOriginal
	case PartitionValidRecovered:
		return p.ValidRecovered
	case PartitionRejected:
		return p.Rejected
	case PartitionDiscardedEmpty:
		return p.DiscardedEmpty
	default:
		return nil
	}
}

// Total returns the number of records across all partitions.
func (p *Partitions) Total() int {
	return len(p.ValidOriginal) + len(p.ValidRecovered) + len(p.Rejected) + len(p.DiscardedEmpty)
}

// Valid returns valid-original followed by valid-recovered.
func (p *Partitions) Valid() []*Record {
	out := make([]*Record, 0, len(p.ValidOriginal)+len(p.ValidRecovered))
	out = append(out, p.ValidOriginal...)
	return append(out, p.ValidRecovered...)
}
