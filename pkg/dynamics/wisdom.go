package dynamics

import (
	"fmt"

	"github.com/genomewalker/resonantdb/pkg/types"
)

// SynthesizeWisdom implements §4.7 step 4: cluster Episode nodes by pairwise
// cosine similarity, and promote clusters of at least MinClusterSize into a
// single Wisdom node summarizing the pattern.
func (e *Engine) SynthesizeWisdom() error {
	var episodes []*types.Node
	err := e.store.ForEachNode(func(n *types.Node) bool {
		if !n.Tombstoned && n.Type == types.Episode && !n.HasTag("promoted") {
			episodes = append(episodes, n)
		}
		return true
	})
	if err != nil {
		return err
	}

	clusters := clusterByCosine(episodes, e.config.ClusterCosine, e.config.MinClusterSize)
	now := e.nowFn()
	for _, cluster := range clusters {
		if err := e.promoteCluster(cluster, now); err != nil {
			return err
		}
	}
	return nil
}

// clusterByCosine groups nodes into connected components under a pairwise
// cosine threshold (single-link clustering), keeping only components whose
// size meets minSize.
func clusterByCosine(nodes []*types.Node, threshold float64, minSize int) [][]*types.Node {
	n := len(nodes)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if nodes[i].Embedding.ApproxCosine(nodes[j].Embedding) > threshold {
				union(i, j)
			}
		}
	}

	groups := map[int][]*types.Node{}
	for i, node := range nodes {
		root := find(i)
		groups[root] = append(groups[root], node)
	}

	var clusters [][]*types.Node
	for _, g := range groups {
		if len(g) >= minSize {
			clusters = append(clusters, g)
		}
	}
	return clusters
}

func (e *Engine) promoteCluster(cluster []*types.Node, nowMs int64) error {
	centroid := centroidOf(cluster)
	var muSum float64
	for _, n := range cluster {
		muSum += n.Confidence.Mu
	}
	avgMu := muSum / float64(len(cluster))
	wisdomMu := avgMu + e.config.WisdomConfidenceBump
	if wisdomMu > e.config.WisdomConfidenceCap {
		wisdomMu = e.config.WisdomConfidenceCap
	}

	excerpt := excerptOf(cluster[0])
	payload := []byte(fmt.Sprintf("Pattern observed (%d occurrences): %s", len(cluster), excerpt))

	id, err := types.NewNodeID(nowMs)
	if err != nil {
		return err
	}
	wisdom := types.NewNode(id, types.Wisdom, centroid, payload, wisdomMu, nowMs)
	if err := e.store.Put(wisdom); err != nil {
		return err
	}

	for _, n := range cluster {
		if _, err := e.store.Update(n.ID, func(node *types.Node) error {
			node.AddTag("promoted")
			return nil
		}); err != nil {
			return err
		}
		if err := e.store.PutEdge(id, types.Edge{Target: n.ID, Type: types.EvolvedFrom, Weight: 1.0}); err != nil {
			return err
		}
	}
	return nil
}

func centroidOf(cluster []*types.Node) types.QuantizedVector {
	sum := make([]float32, types.EmbeddingDims)
	for _, n := range cluster {
		v := n.Embedding.Float32()
		for i, x := range v {
			sum[i] += x
		}
	}
	count := float32(len(cluster))
	for i := range sum {
		sum[i] /= count
	}
	return types.Quantize(sum)
}

func excerptOf(n *types.Node) string {
	const maxLen = 80
	s := string(n.Payload)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
