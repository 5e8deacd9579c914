package blame

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"

	"github.com/Sumatoshi-tech/bulkblame/pkg/gitlib"
)

// ProgressFunc observes the walk: it is called once per popped frontier
// node with the 1-based iteration number and the commit hash being
// processed. The working-directory node reports the zero hash.
type ProgressFunc func(iteration int, commitHash string)

// Generator drives the commit-graph walk. It pops the most recent
// frontier node, asks the blamer to split its regions between its
// parents, and pushes parents that received regions back onto the
// frontier. Popping newest-first guarantees that a commit reachable
// through several descendants is expanded only once: all descendants
// are drained before the shared ancestor surfaces.
type Generator struct {
	repo     *gitlib.Repository
	blamer   *FileBlamer
	factory  *graphNodeFactory
	progress ProgressFunc
	logger   *slog.Logger

	frontier frontier
}

// NewGenerator wires a generator over its collaborators.
func NewGenerator(
	repo *gitlib.Repository,
	blamer *FileBlamer,
	factory *graphNodeFactory,
	progress ProgressFunc,
	logger *slog.Logger,
) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		repo:     repo,
		blamer:   blamer,
		factory:  factory,
		progress: progress,
		logger:   logger,
		frontier: newFrontier(),
	}
}

// Run walks the graph until every region is attributed or the context
// is cancelled. Partial results written so far stay valid on error.
func (g *Generator) Run(ctx context.Context, startCommit *gitlib.Hash) error {
	prepErr := g.prepareStartNode(startCommit)
	if prepErr != nil {
		return prepErr
	}

	for iteration := 1; g.frontier.len() > 0; iteration++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("blame walk cancelled: %w", ctxErr)
		}

		current := g.frontier.pop()

		hash := current.identity().String()
		g.logger.Debug("processing commit", "iteration", iteration, "commit", hash)

		if g.progress != nil {
			g.progress(iteration, hash)
		}

		if current.parentCount() == 0 {
			// A root commit owns every region that reached it.
			g.blamer.saveBlameDataForFilesInCommit(current)

			continue
		}

		stepErr := g.expand(ctx, current)
		if stepErr != nil {
			return stepErr
		}
	}

	return nil
}

// prepareStartNode builds and pushes the node for the start revision,
// or the working-tree node anchored at HEAD when none is given.
func (g *Generator) prepareStartNode(startCommit *gitlib.Hash) error {
	var (
		node *graphNode
		err  error
	)

	if startCommit == nil {
		var head gitlib.Hash

		head, err = g.repo.HeadCommit()
		if err != nil {
			return err
		}

		var headInfo gitlib.CommitInfo

		headInfo, err = g.repo.CommitInfo(head)
		if err != nil {
			return err
		}

		node, err = g.factory.createForWorkingDir(headInfo)
	} else {
		var startInfo gitlib.CommitInfo

		startInfo, err = g.repo.CommitInfo(*startCommit)
		if err != nil {
			return err
		}

		node, err = g.factory.createForCommit(startInfo)
	}

	if err != nil {
		return err
	}

	if len(node.allFiles) == 0 {
		return nil
	}

	initErr := g.blamer.initialize(node)
	if initErr != nil {
		return initErr
	}

	g.frontier.push(node)

	return nil
}

// expand splits the node's regions between its parents and re-enqueues
// parents that received any.
func (g *Generator) expand(ctx context.Context, current *graphNode) error {
	parents := make([]gitlib.CommitInfo, 0, current.parentCount())

	for i := range current.parentCount() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("blame walk cancelled: %w", ctxErr)
		}

		parentInfo, err := g.repo.CommitInfo(current.parentHash(i))
		if err != nil {
			return fmt.Errorf("resolve parent of %s: %w", current.identity(), err)
		}

		parents = append(parents, parentInfo)
	}

	var (
		parentNodes []*graphNode
		err         error
	)

	if len(parents) > 1 {
		parentNodes, err = g.blamer.blameParents(ctx, parents, current)
	} else {
		var single *graphNode

		single, err = g.blamer.blameParent(ctx, parents[0], current)
		parentNodes = []*graphNode{single}
	}

	if err != nil {
		return err
	}

	for _, parentNode := range parentNodes {
		if len(parentNode.allFiles) > 0 {
			g.frontier.push(parentNode)
		}
	}

	// Regions no parent claimed were introduced by this commit.
	g.blamer.saveBlameDataForFilesInCommit(current)

	return nil
}

// frontier is the priority-ordered set of pending graph nodes, popped
// most recent first. Nodes are keyed by commit identity: pushing a
// commit already in the frontier merges the incoming regions into the
// existing node instead of queueing a duplicate.
type frontier struct {
	queue nodeQueue
	byKey map[gitlib.Hash]*graphNode
}

func newFrontier() frontier {
	return frontier{byKey: make(map[gitlib.Hash]*graphNode)}
}

func (f *frontier) len() int {
	return len(f.queue)
}

func (f *frontier) push(node *graphNode) {
	existing, ok := f.byKey[node.identity()]
	if !ok {
		f.byKey[node.identity()] = node
		heap.Push(&f.queue, node)

		return
	}

	// A fork that later merged: the same commit was reached from both
	// sides. Fold the incoming candidates into the queued node.
	for _, incoming := range node.allFiles {
		merged := false

		for _, present := range existing.filesAt(incoming.path) {
			if present.canMergeRegions(incoming) {
				present.mergeRegions(incoming)

				merged = true

				break
			}
		}

		if !merged {
			existing.addFile(incoming)
		}
	}
}

func (f *frontier) pop() *graphNode {
	node, ok := heap.Pop(&f.queue).(*graphNode)
	if !ok {
		return nil
	}

	delete(f.byKey, node.identity())

	return node
}

// nodeQueue implements heap.Interface ordered most recent first.
type nodeQueue []*graphNode

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool { return q[i].moreRecentThan(q[j]) }

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) {
	node, ok := x.(*graphNode)
	if ok {
		*q = append(*q, node)
	}
}

func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]

	return node
}
