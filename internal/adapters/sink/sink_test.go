package sink_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/speechrate/internal/adapters/sink"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a file sink in a missing directory", t, func() {
		dir := filepath.Join(t.TempDir(), "reports")
		s := sink.NewFile(dir)

		Convey("When a report is published twice", func() {
			So(s.Publish(ctx, "report.csv", []byte("old")), ShouldBeNil)
			So(s.Publish(ctx, "report.csv", []byte("new")), ShouldBeNil)

			Convey("Then the directory is created and the last body wins", func() {
				body, err := os.ReadFile(filepath.Join(dir, "report.csv"))
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "new")

				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})
		})
	})
}

type putRecorder struct {
	mu     sync.Mutex
	method string
	path   string
}

func (p *putRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	p.mu.Lock()
	p.method = r.Method
	p.path = r.URL.Path
	p.mu.Unlock()
	w.Header().Set("ETag", `"abc"`)
	w.WriteHeader(http.StatusOK)
}

func (p *putRecorder) last() (method, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.method, p.path
}

func TestS3(t *testing.T) {
	ctx := context.Background()

	Convey("Given an incomplete configuration", t, func() {
		_, err := sink.NewS3(sink.S3Config{Bucket: "reports"}, nil)

		Convey("Then the sink is not created", func() {
			So(errors.Is(err, sink.ErrNotConfigured), ShouldBeTrue)
		})
	})

	Convey("Given an S3-compatible endpoint", t, func() {
		rec := &putRecorder{}
		srv := httptest.NewServer(rec)
		defer srv.Close()

		s, err := sink.NewS3(sink.S3Config{
			Bucket:          "reports",
			Prefix:          "textreading",
			Endpoint:        srv.URL,
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}, srv.Client())
		So(err, ShouldBeNil)

		Convey("When a report is published", func() {
			err := s.Publish(ctx, "report.csv", []byte("ID,LANGUAGE_READING_BEH_NULL_MeanSR\n"))

			Convey("Then it is uploaded path-style under the prefix", func() {
				So(err, ShouldBeNil)
				method, path := rec.last()
				So(method, ShouldEqual, http.MethodPut)
				So(path, ShouldEqual, "/reports/textreading/report.csv")
				So(s.Key("report.csv"), ShouldEqual, "textreading/report.csv")
			})
		})
	})
}

type failing struct{ err error }

func (f failing) Publish(context.Context, string, []byte) error { return f.err }

func TestMulti(t *testing.T) {
	Convey("Given several sinks", t, func() {
		dir := t.TempDir()
		boom := errors.New("boom")
		m := sink.Multi{failing{boom}, sink.NewFile(dir)}

		Convey("Then every sink is tried and errors are joined", func() {
			err := m.Publish(context.Background(), "r.csv", []byte("x"))
			So(errors.Is(err, boom), ShouldBeTrue)
			_, statErr := os.Stat(filepath.Join(dir, "r.csv"))
			So(statErr, ShouldBeNil)
		})
	})
}
