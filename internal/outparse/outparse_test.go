package outparse_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spiritgen/internal/outparse"
)

const spiritLog = `2021-09-30 12:00:00  [  ALL  ] [--] [--]   ==========  Version:   2.1.1  ==========
2021-09-30 12:00:00  [  ALL  ] [--] [--]   ==========  Revision:   5ab2c3f  ==========
==========  OpenMP:   enabled  ==========
==========  CUDA:   disabled  ==========
==========  std::thread:   disabled  ==========
==========  Defects:   enabled  ==========
==========  Pinning:   disabled  ==========
==========  scalar type:   double  ==========
2021-09-30 12:00:01  [  ALL  ] [--] [01]   Solver: Depondt
2021-09-30 12:01:31  [  ALL  ] [--] [01]   ------------  Terminated: LLG Simulation ------------
2021-09-30 12:01:31  [  ALL  ] [--] [01]   Total duration    00:01:30.5
2021-09-30 12:01:31  [  ALL  ] [--] [01]   Simulated time:   12.5 ps
2021-09-30 12:01:31  [  ALL  ] [--] [01]   Iterations / sec: 1103.2
2021-09-30 12:01:31  [  ALL  ] [--] [--]   Number of  Errors:  0
2021-09-30 12:01:31  [  ALL  ] [--] [--]   Number of Warnings:  3
`

var _ = Describe("Parse", func() {
	var rec *outparse.Record

	BeforeEach(func() {
		var err error
		rec, err = outparse.ParseReader(strings.NewReader(spiritLog), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reads the run metrics", func() {
		Expect(*rec.Runtime).To(Equal("00:01:30.5"))
		Expect(*rec.RuntimeSec).To(BeNumerically("~", 90.5, 1e-9))
		Expect(*rec.ItPerSec).To(BeNumerically("~", 1103.2, 1e-9))
		Expect(*rec.SimulationTime).To(BeNumerically("~", 12.5, 1e-9))
		Expect(*rec.SimulationTimeUnit).To(Equal("ps"))
		Expect(*rec.NumErrors).To(Equal(0))
		Expect(*rec.NumWarnings).To(Equal(3))
		Expect(*rec.SimulationMode).To(Equal("LLG"))
		Expect(*rec.Solver).To(Equal("Depondt"))
	})

	It("cleans the build information", func() {
		Expect(rec.VersionInfo).To(HaveLen(len(outparse.VersionKeys)))
		Expect(rec.VersionInfo["Pinning"]).To(Equal("Pinning: disabled"))
		Expect(rec.VersionInfo["scalar type"]).To(Equal("scalar type: double"))
		Expect(rec.VersionInfo["Version"]).To(ContainSubstring("Version: 2.1.1"))
		Expect(rec.VersionInfo["Version"]).NotTo(ContainSubstring("=="))
	})

	It("exposes the metrics as a flat map", func() {
		f := rec.Fields()
		Expect(f).To(HaveKeyWithValue("num_errors", 0))
		Expect(f).To(HaveKeyWithValue("solver", "Depondt"))
		Expect(f).To(HaveKey("spirit_version_info"))
	})

	It("converts a plain duration to seconds", func() {
		r := outparse.Parse([]string{"Total duration 00:01:30 ..."}, nil)
		Expect(*r.RuntimeSec).To(Equal(90.0))
		Expect(*r.Runtime).To(Equal("00:01:30"))
	})

	It("reads an error count", func() {
		r := outparse.Parse([]string{"Number of  Errors: 0"}, nil)
		Expect(r.NumErrors).NotTo(BeNil())
		Expect(*r.NumErrors).To(Equal(0))
	})

	It("uses the first line carrying a marker", func() {
		r := outparse.Parse([]string{"Solver: VP", "Solver: Heun"}, nil)
		Expect(*r.Solver).To(Equal("VP"))
	})

	Context("with missing or broken markers", func() {
		It("leaves the metric out", func() {
			lines := strings.Split(spiritLog, "\n")
			var kept []string
			for _, l := range lines {
				if !strings.Contains(l, "Solver:") {
					kept = append(kept, l)
				}
			}
			r := outparse.Parse(kept, nil)
			Expect(r.Solver).To(BeNil())
			Expect(r.Fields()).NotTo(HaveKey("solver"))
			Expect(r.NumWarnings).NotTo(BeNil())
		})

		It("skips values that do not parse", func() {
			r := outparse.Parse([]string{
				"Total duration about a minute",
				"Number of Warnings: many",
				"Iterations / sec: fast",
			}, nil)
			Expect(r.RuntimeSec).To(BeNil())
			Expect(r.NumWarnings).To(BeNil())
			Expect(r.ItPerSec).To(BeNil())
		})

		It("returns an empty record for an empty log", func() {
			r := outparse.Parse(nil, nil)
			Expect(r.Fields()).To(BeEmpty())
			Expect(r.VersionInfo).To(BeEmpty())
		})
	})
})

var _ = Describe("Require", func() {
	rec := outparse.Parse(strings.Split(spiritLog, "\n"), nil)

	It("accepts enabled features", func() {
		Expect(rec.Require(outparse.FeatureDefects)).To(Succeed())
		Expect(rec.Require()).To(Succeed())
	})

	It("rejects disabled features", func() {
		err := rec.Require(outparse.FeatureDefects, outparse.FeaturePinning)
		Expect(errors.Is(err, outparse.ErrIncompatibleCode)).To(BeTrue())
		var inc *outparse.IncompatibleError
		Expect(errors.As(err, &inc)).To(BeTrue())
		Expect(inc.Feature).To(Equal(outparse.FeaturePinning))
	})

	It("rejects features the log never mentions", func() {
		err := outparse.Parse(nil, nil).Require(outparse.FeaturePinning)
		Expect(err).To(MatchError(outparse.ErrIncompatibleCode))
	})
})

var _ = Describe("Seconds", func() {
	DescribeTable("durations",
		func(in string, want float64) {
			got, err := outparse.Seconds(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNumerically("~", want, 1e-9))
		},
		Entry("zero", "0:00:00", 0.0),
		Entry("hours", "2:00:01", 7201.0),
		Entry("fraction", "00:00:01.25", 1.25),
	)

	It("rejects other shapes", func() {
		_, err := outparse.Seconds("01:30")
		Expect(err).To(HaveOccurred())
	})
})
