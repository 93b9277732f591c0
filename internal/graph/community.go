package graph

import "sort"

const lpaMaxIterations = 20

// Communities clusters entities by propagating labels across the
// undirected edge structure until they stabilize. Parallel edges count
// as stronger connections. Singletons are omitted; ties break toward
// the lexicographically largest label so results are deterministic.
func Communities(m *Memory) [][]string {
	names := m.Nodes()
	if len(names) == 0 {
		return nil
	}

	adj := make(map[string]map[string]int, len(names))
	for _, name := range names {
		adj[name] = make(map[string]int)
	}
	for _, t := range m.Triples() {
		adj[t.Subject][t.Object]++
		adj[t.Object][t.Subject]++
	}

	labels := make(map[string]string, len(names))
	for _, name := range names {
		labels[name] = name
	}

	for iter := 0; iter < lpaMaxIterations; iter++ {
		changed := 0
		for _, name := range names {
			neighbors := adj[name]
			if len(neighbors) == 0 {
				continue
			}

			counts := make(map[string]int)
			maxCount := 0
			for neighbor, weight := range neighbors {
				label := labels[neighbor]
				counts[label] += weight
				if counts[label] > maxCount {
					maxCount = counts[label]
				}
			}

			var candidates []string
			for label, count := range counts {
				if count == maxCount {
					candidates = append(candidates, label)
				}
			}
			sort.Strings(candidates)
			best := candidates[len(candidates)-1]

			if labels[name] != best {
				labels[name] = best
				changed++
			}
		}
		if changed == 0 {
			break
		}
	}

	groups := make(map[string][]string)
	for _, name := range names {
		groups[labels[name]] = append(groups[labels[name]], name)
	}

	var communities [][]string
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)
		communities = append(communities, members)
	}
	sort.Slice(communities, func(i, j int) bool {
		if len(communities[i]) != len(communities[j]) {
			return len(communities[i]) > len(communities[j])
		}
		return communities[i][0] < communities[j][0]
	})
	return communities
}
