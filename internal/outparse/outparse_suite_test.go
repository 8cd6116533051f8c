package outparse_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestOutparse(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Outparse Suite")
}
