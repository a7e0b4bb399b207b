package types

import "fmt"

// Partition is the hard test/production split. Scoring, matching and
// cupid assignment never cross it.
type Partition string

const (
	PartitionTest       Partition = "test"
	PartitionProduction Partition = "production"
)

func (p Partition) IsTest() bool {
	return p == PartitionTest
}

func (p Partition) Valid() bool {
	return p == PartitionTest || p == PartitionProduction
}

func ParsePartition(s string) (Partition, error) {
	p := Partition(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown partition %q", s)
	}
	return p, nil
}

func PartitionFor(isTest bool) Partition {
	if isTest {
		return PartitionTest
	}
	return PartitionProduction
}
