package repository_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/speechrate/internal/adapters/repository"
	model "github.com/okian/speechrate/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		s := repository.NewMemStore(repository.WithMetrics())

		Convey("When a subject is unknown", func() {
			_, err := s.Get(ctx, "S01")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When results are stored out of order", func() {
			So(s.Put(ctx, model.NewSubjectRateResult("S03", 4, true, 1)), ShouldBeNil)
			So(s.Put(ctx, model.NewSubjectRateResult("S01", 6, true, 2)), ShouldBeNil)
			So(s.Put(ctx, model.NewSubjectRateResult("S02", 0, false, 0)), ShouldBeNil)

			Convey("Then All is ordered by subject id", func() {
				all := s.All(ctx)
				So(len(all), ShouldEqual, 3)
				So(all[0].SubjectID, ShouldEqual, "S01")
				So(all[1].SubjectID, ShouldEqual, "S02")
				So(all[2].SubjectID, ShouldEqual, "S03")
			})

			Convey("Then a rerun replaces the earlier result", func() {
				So(s.Put(ctx, model.NewSubjectRateResult("S02", 5, true, 1)), ShouldBeNil)
				res, err := s.Get(ctx, "S02")
				So(err, ShouldBeNil)
				So(res.Valid, ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 3)
				So(s.All(ctx)[1].MeanRate, ShouldEqual, 5)
			})

			Convey("Then returned slices are copies", func() {
				all := s.All(ctx)
				all[0].SubjectID = "changed"
				So(s.All(ctx)[0].SubjectID, ShouldEqual, "S01")
			})
		})

		Convey("When the subject id is empty", func() {
			err := s.Put(ctx, model.SubjectRateResult{})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrEmptySubjectID), ShouldBeTrue)
			})
		})

		Convey("When results are stored concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = s.Put(ctx, model.NewSubjectRateResult(fmt.Sprintf("S%02d", i), float64(i), true, 1))
					_ = s.All(ctx)
				}(i)
			}
			wg.Wait()

			Convey("Then every result is kept", func() {
				So(s.Count(ctx), ShouldEqual, 20)
			})
		})
	})
}

func TestWriteCSV(t *testing.T) {
	Convey("Given subject results", t, func() {
		results := []model.SubjectRateResult{
			model.NewSubjectRateResult("S01", 6, true, 2),
			model.NewSubjectRateResult("S02", 0, false, 0),
			model.NewSubjectRateResult("S03", 4.25, true, 1),
		}

		Convey("When the report is written", func() {
			var buf bytes.Buffer
			So(repository.WriteCSV(&buf, results), ShouldBeNil)

			Convey("Then it has the report columns and NaN for absent rates", func() {
				So(buf.String(), ShouldEqual,
					"ID,LANGUAGE_READING_BEH_NULL_MeanSR\nS01,6\nS02,NaN\nS03,4.25\n")
			})
		})

		Convey("When there are no results", func() {
			var buf bytes.Buffer
			So(repository.WriteCSV(&buf, nil), ShouldBeNil)

			Convey("Then only the header is written", func() {
				So(buf.String(), ShouldEqual, "ID,LANGUAGE_READING_BEH_NULL_MeanSR\n")
			})
		})
	})
}
