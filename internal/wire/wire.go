// Package wire provides dependency injection for the pggit application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"os"
	"sync"

	cliadapter "github.com/evoludigit/pgGit-sub001/internal/adapters/cli"
	"github.com/evoludigit/pgGit-sub001/internal/adapters/sqlite"
	"github.com/evoludigit/pgGit-sub001/internal/app"
	"github.com/evoludigit/pgGit-sub001/internal/db"
	"github.com/evoludigit/pgGit-sub001/internal/ports/primary"
)

var (
	branchService primary.BranchService
	commitService primary.CommitService
	objectService primary.ObjectService
	mergeService  primary.MergeService
	once          sync.Once
)

// BranchService returns the singleton BranchService instance.
func BranchService() primary.BranchService {
	once.Do(initServices)
	return branchService
}

// CommitService returns the singleton CommitService instance.
func CommitService() primary.CommitService {
	once.Do(initServices)
	return commitService
}

// ObjectService returns the singleton ObjectService instance.
func ObjectService() primary.ObjectService {
	once.Do(initServices)
	return objectService
}

// MergeService returns the singleton MergeService instance.
func MergeService() primary.MergeService {
	once.Do(initServices)
	return mergeService
}

// CaptureService returns a new capture consumer over the singleton object
// service. Each caller owns its consumer's Run/Close lifecycle.
func CaptureService() primary.CaptureService {
	once.Do(initServices)
	return app.NewCaptureService(objectService)
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	branchRepo := sqlite.NewBranchRepository(database)
	commitRepo := sqlite.NewCommitRepository(database)
	objectRepo := sqlite.NewObjectRepository(database)
	historyRepo := sqlite.NewHistoryRepository(database)
	mergeRepo := sqlite.NewMergeRepository(database)
	depRepo := sqlite.NewDependencyRepository(database)

	// Create services (primary ports implementation)
	branchService = app.NewBranchService(branchRepo)
	commitService = app.NewCommitService(branchRepo, commitRepo)
	objectService = app.NewObjectService(branchRepo, objectRepo, historyRepo, depRepo, commitService)
	mergeService = app.NewMergeService(branchRepo, commitRepo, objectRepo, historyRepo, mergeRepo, depRepo, branchService)
}

// BranchAdapter returns a new BranchAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func BranchAdapter() *cliadapter.BranchAdapter {
	return BranchAdapterWithOutput(os.Stdout)
}

// BranchAdapterWithOutput returns a new BranchAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func BranchAdapterWithOutput(out io.Writer) *cliadapter.BranchAdapter {
	once.Do(initServices)
	return cliadapter.NewBranchAdapter(branchService, out)
}

// MergeAdapter returns a new MergeAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func MergeAdapter() *cliadapter.MergeAdapter {
	return MergeAdapterWithOutput(os.Stdout)
}

// MergeAdapterWithOutput returns a new MergeAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func MergeAdapterWithOutput(out io.Writer) *cliadapter.MergeAdapter {
	once.Do(initServices)
	return cliadapter.NewMergeAdapter(mergeService, out)
}
