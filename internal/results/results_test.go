package results_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/spiritgen/internal/outparse"
	"github.com/san-kum/spiritgen/internal/results"
)

const runLog = `==========  Defects:   enabled  ==========
==========  Pinning:   disabled  ==========
Solver: Depondt
Number of  Errors: 0
`

func writeRun(dir string, files map[string]string) {
	for name, body := range files {
		Expect(os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644)).To(Succeed())
	}
}

func completeRun() map[string]string {
	return map[string]string{
		results.StdoutFile:       runLog,
		results.EnergyFile:       "  Iteration  ||  E_tot  ||  E_Zeeman\n 1 || -3.0 || -1.0\n 2 || -3.5 || -1.5\n",
		results.InitialSpinsFile: "# OOMMF OVF 2.0\n# Begin: Data Text\n0 0 1\nnan nan nan\n# End: Data Text\n",
		results.FinalSpinsFile:   "0.6 0.8 0\n0 0 -1\n",
	}
}

var _ = Describe("Retrieve", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("loads every artifact of a complete run", func() {
		writeRun(dir, completeRun())

		res, err := results.Retrieve(dir, results.Expect{}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(*res.Record.Solver).To(Equal("Depondt"))
		Expect(*res.Record.NumErrors).To(Equal(0))
		Expect(res.Energies).To(Equal([][]float64{{1, -3.0, -1.0}, {2, -3.5, -1.5}}))
		Expect(res.InitialSpins).To(Equal([][]float64{{0, 0, 1}, {0, 0, 0}}))
		Expect(res.FinalSpins).To(HaveLen(2))
		Expect(res.AtomTypes).To(BeNil())
		Expect(res.MC).To(BeNil())
	})

	It("reports missing files without reading anything", func() {
		files := completeRun()
		delete(files, results.FinalSpinsFile)
		writeRun(dir, files)

		res, err := results.Retrieve(dir, results.Expect{MC: true}, nil)
		Expect(res).To(BeNil())
		Expect(errors.Is(err, results.ErrMissingOutputFiles)).To(BeTrue())

		var missing *results.MissingFilesError
		Expect(errors.As(err, &missing)).To(BeTrue())
		Expect(missing.Missing).To(ConsistOf(results.FinalSpinsFile, results.MCFile))
	})

	It("flags an incompatible build but still returns the result", func() {
		writeRun(dir, completeRun())

		res, err := results.Retrieve(dir, results.Expect{Defects: true}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res).NotTo(BeNil())

		res, err = results.Retrieve(dir, results.Expect{Pinning: true}, nil)
		Expect(errors.Is(err, outparse.ErrIncompatibleCode)).To(BeTrue())
		Expect(errors.Is(err, results.ErrMissingOutputFiles)).To(BeFalse())
		Expect(res).NotTo(BeNil())
		Expect(res.Energies).To(HaveLen(2))
	})

	It("loads the monte carlo sweep and atom types", func() {
		files := completeRun()
		files[results.MCFile] = "# T E M chi cv U4\n1.0 -2.0 0.9 0.1 0.2 0.66\n2.0 -1.0 0.5 0.4 0.3 0.5\n"
		files[results.AtomTypesFile] = "0\n-1\n0\n"
		writeRun(dir, files)

		res, err := results.Retrieve(dir, results.Expect{MC: true}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.MC).To(HaveLen(2))
		Expect(res.MC[0]).To(Equal(results.MCSample{T: 1, E: -2, M: 0.9, Chi: 0.1, Cv: 0.2, U4: 0.66}))
		Expect(res.AtomTypes).To(Equal([]int{0, -1, 0}))
	})

	It("fails on a sweep table with the wrong width", func() {
		files := completeRun()
		files[results.MCFile] = "1.0 2.0 3.0\n"
		writeRun(dir, files)

		_, err := results.Retrieve(dir, results.Expect{MC: true}, nil)
		Expect(errors.Is(err, results.ErrMalformedTable)).To(BeTrue())
	})
})

var _ = Describe("LoadTable", func() {
	It("skips header rows, comments and blank lines", func() {
		rows, err := results.LoadTable(strings.NewReader("header\n\n# c\n1 2\n3\t4\n"), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(rows).To(Equal([][]float64{{1, 2}, {3, 4}}))
	})

	It("keeps NaN as read", func() {
		rows, err := results.LoadTable(strings.NewReader("NaN 1\n"), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(math.IsNaN(rows[0][0])).To(BeTrue())
	})

	It("rejects text cells", func() {
		_, err := results.LoadTable(strings.NewReader("1 two\n"), 0)
		Expect(err).To(MatchError(ContainSubstring("line 1")))
		Expect(errors.Is(err, results.ErrMalformedTable)).To(BeTrue())
	})

	It("selects columns", func() {
		Expect(results.Column([][]float64{{1, 2}, {3}}, 1)).To(Equal([]float64{2}))
	})
})
