package deduplication

import (
	"fmt"

	"github.com/clinicaldwh/drwh/internal/types"
)

// Mapping maps every row position to the position of its cluster
// representative. It is built once by Cluster and never mutated.
type Mapping struct {
	reps     []int
	keys     []types.IdentityKey
	clusters int
}

// Cluster groups rows by identity key. The representative of a cluster is
// its member with the smallest position; every member maps to it.
//
// Returns a *types.ParseError if a birth date is present but malformed.
func Cluster(rows []types.RawPatientRow) (*Mapping, error) {
	m := &Mapping{
		reps: make([]int, len(rows)),
		keys: make([]types.IdentityKey, len(rows)),
	}
	first := make(map[types.IdentityKey]int, len(rows))

	for i, row := range rows {
		if _, err := row.ParseBirthDate(i); err != nil {
			return nil, err
		}
		key := row.Key()
		m.keys[i] = key
		if rep, ok := first[key]; ok {
			m.reps[i] = rep
			continue
		}
		first[key] = i
		m.reps[i] = i
	}
	m.clusters = len(first)

	return m, nil
}

// Len returns the number of rows covered by the mapping.
func (m *Mapping) Len() int {
	return len(m.reps)
}

// Representative returns the representative position of row i, which is
// also the canonical patient_num of its cluster.
func (m *Mapping) Representative(i int) int {
	return m.reps[i]
}

// IsMaster reports whether row i is the first row of its cluster.
func (m *Mapping) IsMaster(i int) bool {
	return m.reps[i] == i
}

// ClusterCount returns the number of distinct identity keys.
func (m *Mapping) ClusterCount() int {
	return m.clusters
}

// ClusterInfo is one cluster of rows sharing an identity key.
type ClusterInfo struct {
	Key            types.IdentityKey
	Representative int
	Members        []int // ascending, Members[0] == Representative
}

// Clusters returns the clusters in order of their representative.
func (m *Mapping) Clusters() []ClusterInfo {
	index := make(map[int]int, m.clusters)
	out := make([]ClusterInfo, 0, m.clusters)
	for i, rep := range m.reps {
		if rep == i {
			index[i] = len(out)
			out = append(out, ClusterInfo{Key: m.keys[i], Representative: i})
		}
		c := &out[index[rep]]
		c.Members = append(c.Members, i)
	}
	return out
}

// Stats describes the outcome of clustering.
type Stats struct {
	TotalRows      int `json:"total_rows"`
	ClusterCount   int `json:"cluster_count"`
	DuplicateCount int `json:"duplicate_count"`
	LargestCluster int `json:"largest_cluster"`
}

// Stats returns counts for logging and reporting.
func (m *Mapping) Stats() Stats {
	sizes := make(map[int]int, m.clusters)
	largest := 0
	for _, rep := range m.reps {
		sizes[rep]++
		if sizes[rep] > largest {
			largest = sizes[rep]
		}
	}
	return Stats{
		TotalRows:      len(m.reps),
		ClusterCount:   m.clusters,
		DuplicateCount: len(m.reps) - m.clusters,
		LargestCluster: largest,
	}
}

// Validate checks the mapping invariants: every representative precedes
// or equals its members, maps to itself and shares their identity key.
func (m *Mapping) Validate() error {
	masters := 0
	for i, rep := range m.reps {
		if rep < 0 || rep > i {
			return fmt.Errorf("row %d: representative %d out of range", i, rep)
		}
		if m.reps[rep] != rep {
			return fmt.Errorf("row %d: representative %d is not its own representative", i, rep)
		}
		if m.keys[rep] != m.keys[i] {
			return fmt.Errorf("row %d: identity key %s differs from representative key %s",
				i, m.keys[i], m.keys[rep])
		}
		if rep == i {
			masters++
		}
	}
	if masters != m.clusters {
		return fmt.Errorf("cluster count %d does not match master rows %d", m.clusters, masters)
	}
	return nil
}
