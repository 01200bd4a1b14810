// Package models defines the partition enum and the API request and response types.
package models

import "fmt"

// Partition selects one of the two independent credential tracks.
type Partition string

const (
	Male   Partition = "Male"
	Female Partition = "Female"
)

// Partitions returns every partition in a stable order.
func Partitions() []Partition {
	return []Partition{Male, Female}
}

// ParsePartition accepts exactly "Male" or "Female".
func ParsePartition(s string) (Partition, error) {
	switch Partition(s) {
	case Male, Female:
		return Partition(s), nil
	default:
		return "", fmt.Errorf("invalid partition %q: must be Male or Female", s)
	}
}

// String implements fmt.Stringer.
func (p Partition) String() string {
	return string(p)
}
