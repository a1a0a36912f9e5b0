package fdm

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestFDM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "FDM Suite")
}
