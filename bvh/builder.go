package bvh

import (
	"time"

	"github.com/chewxy/math32"
	"golang.org/x/sync/errgroup"

	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The BVH builder will not attempt to calculate split candidates
	// if the node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// If the split step (calculated as side length / (1024 / (depth+1)))
	// is less than this threshold the BVH builder will not evaluate
	// split candidates.
	minSplitStep float32 = 1e-5

	// Work lists smaller than this are scored on the calling goroutine.
	parallelScoreThreshold = 256
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic ScoreStrategy = surfaceAreaHeuristic{}
)

// A split scoring strategy. Lower scores are better.
type ScoreStrategy interface {
	// Calculate a score for splitting workList at splitPoint along a particular Axis.
	ScoreSplit(workList []BoundedVolume, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32)

	// Calculate a score for all items in workList.
	ScorePartition(workList []BoundedVolume) (score float32)
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type stats struct {
	nodes    int
	leafs    int
	maxDepth int
}

type builder struct {
	logger log.Logger

	tree *Tree

	// The maximum number of items that are placed in a leaf without
	// attempting a split.
	minLeafItems int

	// The split scoring strategy to use.
	scoreStrategy ScoreStrategy

	stats stats
}

// Build constructs a BVH over workList.
//
// Nodes with at most minLeafItems items always become leafs. Larger nodes
// are split at the candidate with the best score, if that score improves on
// the score of keeping the node whole. The build is deterministic: ties
// between candidates are resolved in favor of the lowest axis and then the
// lowest split point.
func Build(workList []BoundedVolume, minLeafItems int, scoreStrategy ScoreStrategy) *Tree {
	if minLeafItems < 1 {
		minLeafItems = 1
	}

	b := &builder{
		logger: log.New("bvh"),
		tree: &Tree{
			Nodes:      make([]Node, 0, 2*len(workList)),
			Primitives: make([]uint32, 0, len(workList)),
			Bounds:     types.EmptyAABB(),
		},
		minLeafItems:  minLeafItems,
		scoreStrategy: scoreStrategy,
	}

	if len(workList) == 0 {
		return b.tree
	}

	ids := make([]uint32, len(workList))
	for i := range ids {
		ids[i] = uint32(i)
	}

	start := time.Now()
	b.partition(workList, ids, 0)
	b.tree.Bounds = b.tree.Nodes[0].Bounds
	b.logger.Debugf(
		"BVH tree build time: %d ms, items: %d, maxDepth: %d, nodes: %d, leafs: %d",
		time.Since(start).Milliseconds(),
		len(workList), b.stats.maxDepth, b.stats.nodes, b.stats.leafs,
	)
	return b.tree
}

// Partition worklist and return node index. The ids slice runs parallel to
// workList and holds the index of each item in the original input.
func (b *builder) partition(workList []BoundedVolume, ids []uint32, depth int) uint32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	node := Node{Bounds: types.EmptyAABB()}
	for _, item := range workList {
		node.Bounds = node.Bounds.Union(item.BBox())
	}

	// Do we have enough items for partitioning? If not create a leaf
	if len(workList) <= b.minLeafItems {
		return b.createLeaf(node, ids)
	}

	bestSplit := b.findBestSplit(workList, node.Bounds, depth)
	if bestSplit == nil {
		return b.createLeaf(node, ids)
	}

	leftWorkList := make([]BoundedVolume, 0, bestSplit.leftCount)
	rightWorkList := make([]BoundedVolume, 0, bestSplit.rightCount)
	leftIds := make([]uint32, 0, bestSplit.leftCount)
	rightIds := make([]uint32, 0, bestSplit.rightCount)
	for i, item := range workList {
		if item.Center()[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, item)
			leftIds = append(leftIds, ids[i])
		} else {
			rightWorkList = append(rightWorkList, item)
			rightIds = append(rightIds, ids[i])
		}
	}

	nodeIndex := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, node)
	b.stats.nodes++

	leftNodeIndex := b.partition(leftWorkList, leftIds, depth+1)
	rightNodeIndex := b.partition(rightWorkList, rightIds, depth+1)
	b.tree.Nodes[nodeIndex].Indices = [2]uint32{leftNodeIndex, rightNodeIndex}

	return uint32(nodeIndex)
}

// Score split candidates along each axis and return the best one or nil if
// no candidate improves on the score of the unsplit node.
func (b *builder) findBestSplit(workList []BoundedVolume, bounds types.AABB, depth int) *splitScore {
	var axisBest [3]*splitScore

	side := bounds.Size()
	scoreAxis := func(axis Axis) {
		// Skip axis if bbox dimension is too small
		if side[axis] < minSideLength {
			return
		}

		// We want the split steps to become more granular the deeper we go
		splitStep := side[axis] / (1024.0 / float32(depth+1))
		if splitStep < minSplitStep {
			return
		}

		// Candidates are derived from an integer counter. Far from the origin
		// the step can drop below the float32 spacing, so accumulating it
		// would stop advancing.
		var best *splitScore
		steps := int(math32.Ceil(side[axis] / splitStep))
		for i := 0; i < steps; i++ {
			splitPoint := bounds.Min[axis] + float32(i)*splitStep
			lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, axis, splitPoint)
			if best == nil || score < best.score {
				best = &splitScore{
					axis:       axis,
					splitPoint: splitPoint,
					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}
		}
		axisBest[axis] = best
	}

	if len(workList) < parallelScoreThreshold {
		for axis := XAxis; axis <= ZAxis; axis++ {
			scoreAxis(axis)
		}
	} else {
		var g errgroup.Group
		for axis := XAxis; axis <= ZAxis; axis++ {
			axis := axis
			g.Go(func() error {
				scoreAxis(axis)
				return nil
			})
		}
		_ = g.Wait()
	}

	bestScore := b.scoreStrategy.ScorePartition(workList)
	var bestSplit *splitScore
	for _, candidate := range axisBest {
		if candidate != nil && candidate.score < bestScore {
			bestScore = candidate.score
			bestSplit = candidate
		}
	}
	return bestSplit
}

// Append a leaf node owning all items in ids and return its index.
func (b *builder) createLeaf(node Node, ids []uint32) uint32 {
	node.Leaf = true
	node.Indices = [2]uint32{uint32(len(b.tree.Primitives)), uint32(len(ids))}
	b.tree.Primitives = append(b.tree.Primitives, ids...)

	nodeIndex := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, node)

	b.stats.nodes++
	b.stats.leafs++

	return uint32(nodeIndex)
}

// A score implementation that uses surface area heuristic for calculating split scores.
type surfaceAreaHeuristic struct{}

// Score a BVH split based on the surface area heuristic. The SAH calculates
// the split score using the formula (lower score is better):
//
// left count * left BBOX area + rightCount * right BBOX area.
//
// SAH avoids splits that generate empty partitions by assigning the worst
// possible score (MaxFloat32) when it encounters such cases.
func (h surfaceAreaHeuristic) ScoreSplit(workList []BoundedVolume, axis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	left := types.EmptyAABB()
	right := types.EmptyAABB()

	for _, item := range workList {
		if item.Center()[axis] < splitPoint {
			leftCount++
			left = left.Union(item.BBox())
		} else {
			rightCount++
			right = right.Union(item.BBox())
		}
	}

	// Make sure that we don't generate empty partitions
	if leftCount == 0 || rightCount == 0 {
		return leftCount, rightCount, math32.MaxFloat32
	}

	score = float32(leftCount)*left.SurfaceArea() + float32(rightCount)*right.SurfaceArea()
	return leftCount, rightCount, score
}

// Calculate score for a partitioned workList using formula:
// count * BBOX area
//
// If the workList is empty, then this method returns the worst possible
// score (MaxFloat32).
func (h surfaceAreaHeuristic) ScorePartition(workList []BoundedVolume) (score float32) {
	if len(workList) == 0 {
		return math32.MaxFloat32
	}

	bounds := types.EmptyAABB()
	for _, item := range workList {
		bounds = bounds.Union(item.BBox())
	}

	return float32(len(workList)) * bounds.SurfaceArea()
}
