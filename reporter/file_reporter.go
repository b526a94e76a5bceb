package reporter

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"

	"github.com/OpenTestSolar/testtool-sdk-golang/model"
)

// LoadResultFileName is the name of the file FileReporter writes discovery results to.
const LoadResultFileName = "load_result.json"

// FileReporter writes each report as a JSON file in a directory instead of a stream.
//
// Test results are stored under a name derived from the test's identity, so a later
// report for the same test replaces the earlier one. Files are written to a temporary
// name and renamed, so readers never see a partial file.
type FileReporter struct {
	dir     string
	loggers ldlog.Loggers
	metrics *Metrics
	lock    sync.Mutex
}

// NewFileReporter returns a reporter that writes into dir, creating it if necessary.
func NewFileReporter(dir string, opts ...Option) (*FileReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cannot create report directory %s", dir)
	}
	o := buildOptions(opts)
	return &FileReporter{dir: dir, loggers: o.loggers, metrics: o.metrics}, nil
}

// TestResultFileName returns the file name FileReporter uses for a test's results.
func TestResultFileName(tc model.TestCase) string {
	sum := sha1.Sum([]byte(model.Key(tc)))
	return hex.EncodeToString(sum[:]) + ".json"
}

// ReportLoadResult writes the outcome of test discovery to LoadResultFileName.
func (r *FileReporter) ReportLoadResult(result model.LoadResult) error {
	return r.report(kindLoadResult, LoadResultFileName, result)
}

// ReportRunCaseResult writes a test result, replacing any earlier result for the same
// test.
func (r *FileReporter) ReportRunCaseResult(result model.TestResult) error {
	return r.report(kindTestResult, TestResultFileName(result.Test), result)
}

func (r *FileReporter) report(kind, name string, v validator) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	n, err := r.writeLocked(name, v)
	if err != nil {
		r.metrics.recordError(kind, err)
		r.loggers.Errorf("Failed to report %s to %s: %s", kind, name, err)
		return err
	}
	r.metrics.recordWrite(kind, n)
	r.loggers.Debugf("Reported %s to %s (%d bytes)", kind, name, n)
	return nil
}

func (r *FileReporter) writeLocked(name string, v validator) (int, error) {
	data, err := marshal(v)
	if err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(r.dir, ".report-*")
	if err != nil {
		return 0, &WriteError{Size: len(data), Err: err}
	}
	n, err := tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp.Name(), filepath.Join(r.dir, name))
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return n, &WriteError{Written: n, Size: len(data), Err: err}
	}
	return n, nil
}
