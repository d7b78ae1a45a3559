package core

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

func TestParseDocumentRoundTrip(t *testing.T) {
	g := NewWithT(t)
	for _, content := range []string{"", "a", "a\n", "a\nb", "a\n\nb\n", "\n"} {
		g.Expect(parseDocument(content).String()).To(Equal(content), "content %q", content)
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "proxychains.conf")
	g.Expect(os.WriteFile(path, []byte("old\n"), 0600)).To(Succeed())

	fs := afero.NewOsFs()
	g.Expect(writeFileAtomic(fs, path, []byte("new\n"))).To(Succeed())

	data, err := os.ReadFile(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(Equal("new\n"))

	info, err := os.Stat(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Mode().Perm()).To(Equal(os.FileMode(0600)))

	entries, err := os.ReadDir(dir)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries).To(HaveLen(1))
	g.Expect(entries[0].Name()).To(Equal("proxychains.conf"))
}

func TestWriteFileAtomicFailsWithoutDirectory(t *testing.T) {
	g := NewWithT(t)
	path := filepath.Join(t.TempDir(), "missing", "proxychains.conf")

	g.Expect(writeFileAtomic(afero.NewOsFs(), path, []byte("x"))).NotTo(Succeed())
	_, err := os.Stat(path)
	g.Expect(os.IsNotExist(err)).To(BeTrue())
}

func TestRewriteThroughSymlinkKeepsLink(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "proxychains4.conf")
	link := filepath.Join(dir, "proxychains.conf")
	g.Expect(os.WriteFile(target, []byte("[ProxyList]\n# "+torLine+"\n"), 0640)).To(Succeed())
	g.Expect(os.Symlink("proxychains4.conf", link)).To(Succeed())

	g.Expect(NewRewriter(afero.NewOsFs(), link).Enable(torLine)).To(Succeed())

	info, err := os.Lstat(link)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Mode() & os.ModeSymlink).NotTo(BeZero())

	data, err := os.ReadFile(target)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(Equal("[ProxyList]\n" + torLine + "\n"))

	info, err = os.Stat(target)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(info.Mode().Perm()).To(Equal(os.FileMode(0640)))

	entries, err := os.ReadDir(dir)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(entries).To(HaveLen(2))
}

func TestCopyFileFollowsSymlinkChain(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	realDir := filepath.Join(dir, "real")
	g.Expect(os.Mkdir(realDir, 0755)).To(Succeed())
	target := filepath.Join(realDir, "proxychains4.conf")
	middle := filepath.Join(dir, "middle.conf")
	link := filepath.Join(dir, "proxychains.conf")
	backup := filepath.Join(dir, "backup.conf")
	g.Expect(os.WriteFile(target, []byte("old\n"), 0644)).To(Succeed())
	g.Expect(os.WriteFile(backup, []byte("restored\n"), 0644)).To(Succeed())
	g.Expect(os.Symlink(target, middle)).To(Succeed())
	g.Expect(os.Symlink("middle.conf", link)).To(Succeed())

	g.Expect(copyFile(afero.NewOsFs(), backup, link)).To(Succeed())

	data, err := os.ReadFile(target)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(string(data)).To(Equal("restored\n"))
	for _, p := range []string{link, middle} {
		info, err := os.Lstat(p)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(info.Mode()&os.ModeSymlink).NotTo(BeZero(), p)
	}
}

func TestResolveLinkRejectsLoop(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	g.Expect(os.Symlink("b", a)).To(Succeed())
	g.Expect(os.Symlink("a", b)).To(Succeed())

	_, err := resolveLink(afero.NewOsFs(), a)
	g.Expect(err).To(MatchError(ContainSubstring("too many levels")))
}
