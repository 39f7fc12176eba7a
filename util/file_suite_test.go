package util_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/antaressimulatorteam/antares-web-installer/util"
)

func md5sum(path string) string {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()

	h := md5.New()
	_, err = io.Copy(h, f)
	Expect(err).NotTo(HaveOccurred())
	return hex.EncodeToString(h.Sum(nil))
}

var _ = Describe("Util", func() {

	var (
		tmpDir string
	)

	type TestResult struct {
		Success bool
		Error   string
		Steps   []string
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "antares_util_test_tmp_*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.RemoveAll(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("JSON files", func() {
		Context("written atomically", func() {
			It("should be written and read successfully", func() {
				written := &TestResult{
					Success: false,
					Error:   "server did not start in time",
					Steps:   []string{"stop", "install"},
				}

				file := filepath.Join(tmpDir, "nested", "result.json")
				err := util.WriteJson(context.Background(), file, written)
				Expect(err).NotTo(HaveOccurred())

				read, err := util.ReadJson(file, &TestResult{})
				Expect(err).NotTo(HaveOccurred())
				Expect(read).NotTo(BeNil())
				Expect(read.(*TestResult).Error).To(BeEquivalentTo(written.Error))
				Expect(read.(*TestResult).Steps).To(ContainElements(written.Steps))

				entries, err := os.ReadDir(filepath.Dir(file))
				Expect(err).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})

			It("should refuse to write with a cancelled context", func() {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()

				err := util.WriteJson(ctx, filepath.Join(tmpDir, "result.json"), &TestResult{})
				Expect(err).To(MatchError(context.Canceled))
				Expect(util.FileExists(filepath.Join(tmpDir, "result.json"))).To(BeFalse())
			})
		})
	})

	Describe("Copying a file", func() {
		Context("over an existing one", func() {
			It("should replace contents and keep metadata", func() {
				src := filepath.Join(tmpDir, "copytest_src")
				dst := filepath.Join(tmpDir, "copytest_dst")

				Expect(os.WriteFile(src, []byte("new binary"), 0o755)).To(Succeed())
				Expect(os.WriteFile(dst, []byte("old binary with more bytes"), 0o644)).To(Succeed())
				mtime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
				Expect(os.Chtimes(src, mtime, mtime)).To(Succeed())

				Expect(util.CopyFile(src, dst)).To(Succeed())
				Expect(md5sum(dst)).To(Equal(md5sum(src)))

				info, err := os.Stat(dst)
				Expect(err).NotTo(HaveOccurred())
				Expect(info.ModTime().Equal(mtime)).To(BeTrue())
				if runtime.GOOS != "windows" {
					Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o755)))
				}
			})
		})
	})

	Describe("Checking a directory", func() {
		It("should treat missing and empty directories as empty", func() {
			empty, err := util.IsDirEmpty(filepath.Join(tmpDir, "missing"))
			Expect(err).NotTo(HaveOccurred())
			Expect(empty).To(BeTrue())

			empty, err = util.IsDirEmpty(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(empty).To(BeTrue())

			Expect(os.WriteFile(filepath.Join(tmpDir, "a.txt"), nil, 0o644)).To(Succeed())
			empty, err = util.IsDirEmpty(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(empty).To(BeFalse())
		})

		It("should fail on a regular file", func() {
			file := filepath.Join(tmpDir, "a.txt")
			Expect(os.WriteFile(file, nil, 0o644)).To(Succeed())

			_, err := util.IsDirEmpty(file)
			Expect(err).To(HaveOccurred())
		})
	})
})
