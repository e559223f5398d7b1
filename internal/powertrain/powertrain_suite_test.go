package powertrain_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPowertrain(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Powertrain Suite")
}
