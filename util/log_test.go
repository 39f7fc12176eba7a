package util_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	log "github.com/sirupsen/logrus"

	"github.com/antaressimulatorteam/antares-web-installer/util"
)

var _ = Describe("InitLog", func() {

	AfterEach(func() {
		Expect(util.InitLog("info", util.LogConsole)).To(Succeed())
	})

	It("reports callers only at debug level", func() {
		Expect(util.InitLog("info", util.LogConsole)).To(Succeed())
		Expect(log.StandardLogger().ReportCaller).To(BeFalse())
		Expect(log.StandardLogger().Hooks).To(BeEmpty())

		Expect(util.InitLog("debug", util.LogConsole)).To(Succeed())
		Expect(util.InitLog("debug", util.LogConsole)).To(Succeed())
		Expect(log.StandardLogger().ReportCaller).To(BeTrue())
		Expect(log.StandardLogger().Hooks[log.InfoLevel]).To(HaveLen(1))
	})

	It("writes to the log file", func() {
		dir, err := os.MkdirTemp("", "installer-log")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "logs", "installer.log")
		Expect(util.InitLog("info", path)).To(Succeed())

		log.Info("Progression: 50.00")

		content, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring(" INFO Progression: 50.00"))
	})

	It("rejects unknown levels", func() {
		Expect(util.InitLog("verbose", util.LogConsole)).NotTo(Succeed())
	})
})
