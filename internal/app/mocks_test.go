package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/evoludigit/pgGit-sub001/internal/ports/secondary"
)

// In-memory repository doubles shared by the service tests. They enforce
// the same contracts the SQLite adapters do (uniqueness, CAS on appends,
// transactional merge apply) so services are exercised against realistic
// persistence behavior.

// ----------------------------------------------------------------------------
// branches

type mockBranchRepo struct {
	byID map[string]*secondary.BranchRecord
	seq  int
}

func newMockBranchRepo() *mockBranchRepo {
	return &mockBranchRepo{byID: make(map[string]*secondary.BranchRecord)}
}

func (m *mockBranchRepo) Create(ctx context.Context, branch *secondary.BranchRecord) error {
	for _, b := range m.byID {
		if b.Name == branch.Name {
			return fmt.Errorf("branch %s: %w", branch.Name, secondary.ErrDuplicate)
		}
	}
	clone := *branch
	if clone.Status == "" {
		clone.Status = "ACTIVE"
	}
	m.seq++
	clone.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC).Format(time.RFC3339)
	m.byID[clone.ID] = &clone
	return nil
}

func (m *mockBranchRepo) GetByID(ctx context.Context, id string) (*secondary.BranchRecord, error) {
	if b, ok := m.byID[id]; ok {
		clone := *b
		return &clone, nil
	}
	return nil, fmt.Errorf("branch %s: %w", id, secondary.ErrNotFound)
}

func (m *mockBranchRepo) GetByName(ctx context.Context, name string) (*secondary.BranchRecord, error) {
	for _, b := range m.byID {
		if b.Name == name {
			clone := *b
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("branch %s: %w", name, secondary.ErrNotFound)
}

func (m *mockBranchRepo) List(ctx context.Context, filters secondary.BranchFilters) ([]*secondary.BranchRecord, error) {
	var result []*secondary.BranchRecord
	for _, b := range m.byID {
		if filters.Status != "" && b.Status != filters.Status {
			continue
		}
		if filters.Status == "" && !filters.IncludeDeleted && b.Status == "DELETED" {
			continue
		}
		clone := *b
		result = append(result, &clone)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt < result[j].CreatedAt })
	return result, nil
}

func (m *mockBranchRepo) UpdateStatus(ctx context.Context, id, status string) error {
	b, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("branch %s: %w", id, secondary.ErrNotFound)
	}
	b.Status = status
	return nil
}

func (m *mockBranchRepo) SetHead(ctx context.Context, id, commitHash string) error {
	b, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("branch %s: %w", id, secondary.ErrNotFound)
	}
	b.HeadCommitHash = commitHash
	return nil
}

func (m *mockBranchRepo) ParentMap(ctx context.Context) (map[string]string, error) {
	parents := make(map[string]string)
	for id, b := range m.byID {
		parents[id] = b.ParentBranchID
	}
	return parents, nil
}

// ----------------------------------------------------------------------------
// commits

type mockCommitRepo struct {
	byHash map[string]*secondary.CommitRecord
	order  []string
}

func newMockCommitRepo() *mockCommitRepo {
	return &mockCommitRepo{byHash: make(map[string]*secondary.CommitRecord)}
}

func (m *mockCommitRepo) Create(ctx context.Context, commit *secondary.CommitRecord) error {
	if _, ok := m.byHash[commit.Hash]; ok {
		return fmt.Errorf("commit %s: %w", commit.Hash, secondary.ErrDuplicate)
	}
	clone := *commit
	clone.Timestamp = time.Now().UTC().Format(time.RFC3339)
	m.byHash[clone.Hash] = &clone
	m.order = append(m.order, clone.Hash)
	return nil
}

func (m *mockCommitRepo) GetByHash(ctx context.Context, hash string) (*secondary.CommitRecord, error) {
	if c, ok := m.byHash[hash]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, fmt.Errorf("commit %s: %w", hash, secondary.ErrNotFound)
}

func (m *mockCommitRepo) ListByBranch(ctx context.Context, branchID string, limit int) ([]*secondary.CommitRecord, error) {
	var result []*secondary.CommitRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		c := m.byHash[m.order[i]]
		if c.BranchID != branchID {
			continue
		}
		clone := *c
		result = append(result, &clone)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// objects

type mockObjectRepo struct {
	byID   map[int64]*secondary.ObjectRecord
	nextID int64
}

func newMockObjectRepo() *mockObjectRepo {
	return &mockObjectRepo{byID: make(map[int64]*secondary.ObjectRecord), nextID: 1}
}

func (m *mockObjectRepo) Ensure(ctx context.Context, objectType, schemaName, objectName string) (*secondary.ObjectRecord, error) {
	for _, o := range m.byID {
		if o.ObjectType == objectType && o.SchemaName == schemaName && o.ObjectName == objectName {
			clone := *o
			return &clone, nil
		}
	}
	record := &secondary.ObjectRecord{
		ID:         m.nextID,
		ObjectType: objectType,
		SchemaName: schemaName,
		ObjectName: objectName,
		Version:    "1.0.0",
		IsActive:   true,
	}
	m.byID[m.nextID] = record
	m.nextID++
	clone := *record
	return &clone, nil
}

func (m *mockObjectRepo) GetByID(ctx context.Context, id int64) (*secondary.ObjectRecord, error) {
	if o, ok := m.byID[id]; ok {
		clone := *o
		return &clone, nil
	}
	return nil, fmt.Errorf("object %d: %w", id, secondary.ErrNotFound)
}

func (m *mockObjectRepo) GetByIdentity(ctx context.Context, objectType, schemaName, objectName string) (*secondary.ObjectRecord, error) {
	for _, o := range m.byID {
		if o.ObjectType == objectType && o.SchemaName == schemaName && o.ObjectName == objectName {
			clone := *o
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("object %s.%s: %w", schemaName, objectName, secondary.ErrNotFound)
}

// ----------------------------------------------------------------------------
// history ledger

type mockHistoryRepo struct {
	entries []*secondary.HistoryRecord
	objects *mockObjectRepo
	nextID  int64
}

func newMockHistoryRepo(objects *mockObjectRepo) *mockHistoryRepo {
	return &mockHistoryRepo{objects: objects, nextID: 1}
}

func (m *mockHistoryRepo) Append(ctx context.Context, entry *secondary.HistoryRecord, object secondary.ObjectUpdate) (int64, error) {
	if latest := m.latest(entry.ObjectID, entry.BranchID); latest != nil {
		if latest.AfterHash != entry.BeforeHash {
			return 0, fmt.Errorf("object %d on branch %s: %w", entry.ObjectID, entry.BranchID, secondary.ErrStaleWrite)
		}
	}

	clone := *entry
	clone.ID = m.nextID
	clone.Timestamp = time.Now().UTC().Format(time.RFC3339)
	m.nextID++
	m.entries = append(m.entries, &clone)

	if o, ok := m.objects.byID[entry.ObjectID]; ok {
		o.CurrentDefinition = object.CurrentDefinition
		o.ContentHash = object.ContentHash
		o.Version = object.Version
		o.IsActive = object.IsActive
	}
	return clone.ID, nil
}

func (m *mockHistoryRepo) latest(objectID int64, branchID string) *secondary.HistoryRecord {
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.ObjectID == objectID && e.BranchID == branchID {
			return e
		}
	}
	return nil
}

func (m *mockHistoryRepo) LatestEntry(ctx context.Context, objectID int64, branchID string) (*secondary.HistoryRecord, error) {
	if e := m.latest(objectID, branchID); e != nil {
		clone := *e
		return &clone, nil
	}
	return nil, fmt.Errorf("object %d on branch %s: %w", objectID, branchID, secondary.ErrNotFound)
}

func (m *mockHistoryRepo) ListByObjectBranch(ctx context.Context, objectID int64, branchID string, limit int) ([]*secondary.HistoryRecord, error) {
	var result []*secondary.HistoryRecord
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.ObjectID != objectID || e.BranchID != branchID {
			continue
		}
		clone := *e
		result = append(result, &clone)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockHistoryRepo) LatestEntryByCommits(ctx context.Context, objectID int64, commitHashes []string) (*secondary.HistoryRecord, error) {
	commits := make(map[string]bool, len(commitHashes))
	for _, hash := range commitHashes {
		commits[hash] = true
	}
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.ObjectID == objectID && commits[e.CommitHash] {
			clone := *e
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("object %d: %w", objectID, secondary.ErrNotFound)
}

func (m *mockHistoryRepo) TouchedObjectIDs(ctx context.Context, branchIDs []string) ([]int64, error) {
	seen := make(map[int64]bool)
	for _, e := range m.entries {
		for _, id := range branchIDs {
			if e.BranchID == id {
				seen[e.ObjectID] = true
			}
		}
	}
	var ids []int64
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockHistoryRepo) BranchObjects(ctx context.Context, branchID string, filters secondary.BranchObjectFilters) ([]*secondary.BranchObjectRow, error) {
	latest := make(map[int64]*secondary.HistoryRecord)
	for _, e := range m.entries {
		if e.BranchID == branchID {
			latest[e.ObjectID] = e
		}
	}

	var rows []*secondary.BranchObjectRow
	for objectID, e := range latest {
		if e.ChangeType == "DROP" {
			continue
		}
		o := m.objects.byID[objectID]
		if filters.ObjectType != "" && o.ObjectType != filters.ObjectType {
			continue
		}
		if filters.SchemaName != "" && o.SchemaName != filters.SchemaName {
			continue
		}
		rows = append(rows, &secondary.BranchObjectRow{
			ObjectID:   objectID,
			ObjectType: o.ObjectType,
			SchemaName: o.SchemaName,
			ObjectName: o.ObjectName,
			AfterHash:  e.AfterHash,
			Version:    o.Version,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SchemaName != rows[j].SchemaName {
			return rows[i].SchemaName < rows[j].SchemaName
		}
		return rows[i].ObjectName < rows[j].ObjectName
	})
	return rows, nil
}

// ----------------------------------------------------------------------------
// merges

type mockMergeRepo struct {
	ops       map[string]*secondary.MergeOperationRecord
	conflicts map[string][]*secondary.ConflictRecord
	history   *mockHistoryRepo
	branches  *mockBranchRepo
}

func newMockMergeRepo(history *mockHistoryRepo, branches *mockBranchRepo) *mockMergeRepo {
	return &mockMergeRepo{
		ops:       make(map[string]*secondary.MergeOperationRecord),
		conflicts: make(map[string][]*secondary.ConflictRecord),
		history:   history,
		branches:  branches,
	}
}

func (m *mockMergeRepo) RecordAborted(ctx context.Context, op *secondary.MergeOperationRecord) error {
	clone := *op
	clone.Status = "ABORTED"
	m.ops[clone.ID] = &clone
	return nil
}

func (m *mockMergeRepo) ApplyMerge(ctx context.Context, req secondary.ApplyMergeRequest) error {
	// CAS-check every entry up front so a stale one leaves no trace,
	// mirroring the adapter's transaction.
	for _, e := range req.Entries {
		if latest := m.history.latest(e.Entry.ObjectID, e.Entry.BranchID); latest != nil {
			if latest.AfterHash != e.Entry.BeforeHash {
				return fmt.Errorf("object %d: %w", e.Entry.ObjectID, secondary.ErrStaleWrite)
			}
		}
	}

	for _, e := range req.Entries {
		if _, err := m.history.Append(ctx, e.Entry, e.Object); err != nil {
			return err
		}
	}
	for _, c := range req.Conflicts {
		clone := *c
		m.conflicts[c.MergeID] = append(m.conflicts[c.MergeID], &clone)
	}

	op := *req.Op
	if op.Status == "COMPLETED" {
		op.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	}
	m.ops[op.ID] = &op

	if req.MergeCommit != nil {
		m.branches.SetHead(ctx, req.TargetID, req.MergeCommit.Hash)
	}
	return m.branches.UpdateStatus(ctx, req.TargetID, req.TargetStatus)
}

func (m *mockMergeRepo) GetByID(ctx context.Context, id string) (*secondary.MergeOperationRecord, error) {
	if op, ok := m.ops[id]; ok {
		clone := *op
		return &clone, nil
	}
	return nil, fmt.Errorf("merge %s: %w", id, secondary.ErrNotFound)
}

func (m *mockMergeRepo) ListConflicts(ctx context.Context, mergeID string) ([]*secondary.ConflictRecord, error) {
	var result []*secondary.ConflictRecord
	for _, c := range m.conflicts[mergeID] {
		clone := *c
		result = append(result, &clone)
	}
	return result, nil
}

func (m *mockMergeRepo) GetConflict(ctx context.Context, mergeID string, seq int) (*secondary.ConflictRecord, error) {
	for _, c := range m.conflicts[mergeID] {
		if c.ConflictSeq == seq {
			clone := *c
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("conflict %s/%d: %w", mergeID, seq, secondary.ErrNotFound)
}

func (m *mockMergeRepo) ResolveConflict(ctx context.Context, req secondary.ResolveConflictRequest) (int, error) {
	var conflict *secondary.ConflictRecord
	for _, c := range m.conflicts[req.MergeID] {
		if c.ConflictSeq == req.ConflictSeq {
			conflict = c
		}
	}
	if conflict == nil || conflict.Resolution != "DEFERRED" {
		return 0, fmt.Errorf("conflict %s/%d: %w", req.MergeID, req.ConflictSeq, secondary.ErrNotFound)
	}

	if req.Entry != nil {
		if _, err := m.history.Append(ctx, req.Entry, req.Object); err != nil {
			return 0, err
		}
	}

	conflict.Resolution = req.Resolution
	conflict.ResolvedAt = time.Now().UTC().Format(time.RFC3339)
	if req.Resolution == "CUSTOM" && req.Entry != nil {
		conflict.CustomDefinition = req.Entry.AfterDefinition
	}

	remaining := 0
	for _, c := range m.conflicts[req.MergeID] {
		if c.Resolution == "DEFERRED" {
			remaining++
		}
	}
	if remaining == 0 {
		op := m.ops[req.MergeID]
		op.Status = "COMPLETED"
		op.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		m.branches.UpdateStatus(ctx, req.TargetBranchID, "ACTIVE")
	}
	return remaining, nil
}

func (m *mockMergeRepo) Abort(ctx context.Context, mergeID, targetBranchID string) error {
	op, ok := m.ops[mergeID]
	if !ok || op.Status != "CONFLICTED" {
		return fmt.Errorf("merge %s: %w", mergeID, secondary.ErrNotFound)
	}
	op.Status = "ABORTED"
	op.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	return m.branches.UpdateStatus(ctx, targetBranchID, "ACTIVE")
}

// ----------------------------------------------------------------------------
// dependencies

type mockDependencyRepo struct {
	edges   []*secondary.DependencyRecord
	objects *mockObjectRepo
}

func newMockDependencyRepo(objects *mockObjectRepo) *mockDependencyRepo {
	return &mockDependencyRepo{objects: objects}
}

func (m *mockDependencyRepo) Add(ctx context.Context, edge *secondary.DependencyRecord) error {
	for _, e := range m.edges {
		if e.BranchID == edge.BranchID && e.DependentID == edge.DependentID && e.DependencyID == edge.DependencyID {
			return fmt.Errorf("dependency edge: %w", secondary.ErrDuplicate)
		}
	}
	clone := *edge
	m.edges = append(m.edges, &clone)
	return nil
}

func (m *mockDependencyRepo) CountDependents(ctx context.Context, objectID int64, branchID string) (int, error) {
	count := 0
	for _, e := range m.edges {
		if e.BranchID == branchID && e.DependencyID == objectID {
			count++
		}
	}
	return count, nil
}

func (m *mockDependencyRepo) ListDependents(ctx context.Context, objectID int64, branchID string) ([]*secondary.ObjectRecord, error) {
	var result []*secondary.ObjectRecord
	for _, e := range m.edges {
		if e.BranchID == branchID && e.DependencyID == objectID {
			if o, ok := m.objects.byID[e.DependentID]; ok {
				clone := *o
				result = append(result, &clone)
			}
		}
	}
	return result, nil
}

// ----------------------------------------------------------------------------
// fixture

// fixture wires all services over the in-memory repositories.
type fixture struct {
	branchRepo  *mockBranchRepo
	commitRepo  *mockCommitRepo
	objectRepo  *mockObjectRepo
	historyRepo *mockHistoryRepo
	mergeRepo   *mockMergeRepo
	depRepo     *mockDependencyRepo

	branches *BranchServiceImpl
	commits  *CommitServiceImpl
	objects  *ObjectServiceImpl
	merges   *MergeServiceImpl
}

func newFixture() *fixture {
	f := &fixture{
		branchRepo: newMockBranchRepo(),
		commitRepo: newMockCommitRepo(),
		objectRepo: newMockObjectRepo(),
	}
	f.historyRepo = newMockHistoryRepo(f.objectRepo)
	f.mergeRepo = newMockMergeRepo(f.historyRepo, f.branchRepo)
	f.depRepo = newMockDependencyRepo(f.objectRepo)

	f.branches = NewBranchService(f.branchRepo)
	f.commits = NewCommitService(f.branchRepo, f.commitRepo)
	f.objects = NewObjectService(f.branchRepo, f.objectRepo, f.historyRepo, f.depRepo, f.commits)
	f.merges = NewMergeService(f.branchRepo, f.commitRepo, f.objectRepo, f.historyRepo, f.mergeRepo, f.depRepo, f.branches)
	return f
}

// interface conformance for the doubles
var (
	_ secondary.BranchRepository     = (*mockBranchRepo)(nil)
	_ secondary.CommitRepository     = (*mockCommitRepo)(nil)
	_ secondary.ObjectRepository     = (*mockObjectRepo)(nil)
	_ secondary.HistoryRepository    = (*mockHistoryRepo)(nil)
	_ secondary.MergeRepository      = (*mockMergeRepo)(nil)
	_ secondary.DependencyRepository = (*mockDependencyRepo)(nil)
)
