package utils

import (
	"context"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

type (
	// BeforeParallelGroupWorkFunc executes before any work starts with the calculated group size.
	BeforeParallelGroupWorkFunc func(groupSize int)
	// MemberWorkFunc runs for each work item (member) of a group.
	MemberWorkFunc func(memberNum, workNum int) error
	// GroupWorkDoneFunc runs when a single group's work is done; helpful for merge stages.
	GroupWorkDoneFunc func()
	// GroupWorkFunc runs to determine what work members should do, if any.
	GroupWorkFunc func(groupNum, groupSize, from, to int) (MemberWorkFunc, GroupWorkDoneFunc)
)

// GroupWorkParallel splits totalSize work items into contiguous groups and runs every group on its
// own goroutine. Member errors are combined; a cancelled context stops each group before its next
// work item. Panics in a group are captured and reported as errors.
func GroupWorkParallel(ctx context.Context, totalSize int, before BeforeParallelGroupWorkFunc, groupWork GroupWorkFunc) error {
	return GroupWorkParallelN(ctx, ParallelFactor, totalSize, before, groupWork)
}

// GroupWorkParallelN is GroupWorkParallel with at most maxGroups groups. A non-positive maxGroups
// falls back to ParallelFactor.
func GroupWorkParallelN(
	ctx context.Context,
	maxGroups, totalSize int,
	before BeforeParallelGroupWorkFunc,
	groupWork GroupWorkFunc,
) error {
	numGroups := maxGroups
	if numGroups <= 0 {
		numGroups = ParallelFactor
	}
	if totalSize < numGroups {
		numGroups = totalSize
	}
	if numGroups <= 0 {
		before(0)
		return ctx.Err()
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	before(numGroups)

	var (
		wait    sync.WaitGroup
		errMu   sync.Mutex
		allErrs error
	)
	storeError := func(err error) {
		errMu.Lock()
		allErrs = multierr.Append(allErrs, err)
		errMu.Unlock()
	}

	wait.Add(numGroups)
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		utils.PanicCapturingGo(func() {
			defer wait.Done()
			defer func() {
				if r := recover(); r != nil {
					storeError(errors.Errorf("panic in work group %d: %v", groupNum, r))
				}
			}()

			from := groupSize * groupNum
			to := from + groupSize
			thisGroupSize := groupSize
			if groupNum == numGroups-1 {
				to += extra
				thisGroupSize += extra
			}
			memberWork, groupWorkDone := groupWork(groupNum, thisGroupSize, from, to)
			if memberWork != nil {
				memberNum := 0
				for workNum := from; workNum < to; workNum++ {
					if err := ctx.Err(); err != nil {
						storeError(err)
						return
					}
					if err := memberWork(memberNum, workNum); err != nil {
						storeError(err)
					}
					memberNum++
				}
			}
			if groupWorkDone != nil {
				groupWorkDone()
			}
		})
	}
	wait.Wait()
	return allErrs
}
