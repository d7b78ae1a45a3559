package core

import (
	"strings"
	"testing"

	"pcswitch/models"

	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
)

const (
	torLine    = "socks5 \t127.0.0.1 9050"
	chiselLine = "socks5 \t127.0.0.1 1080"
)

func memConfig(t *testing.T, content string) (afero.Fs, *Rewriter) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/etc/proxychains.conf", []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return fs, NewRewriter(fs, "/etc/proxychains.conf")
}

func readString(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func activeDirectives(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if models.IsDirectiveLine(line) {
			out = append(out, line)
		}
	}
	return out
}

func TestSuppressThenEnableLeavesOneActive(t *testing.T) {
	g := NewWithT(t)

	configs := []string{
		"[ProxyList]\n# " + torLine + "\n# " + chiselLine + "\n",
		"[ProxyList]\n" + chiselLine + "\n# " + torLine + "\nhttp 10.0.0.2 8080\n",
		"strict_chain\n\n[ProxyList]\nsocks4 10.0.0.1 1080\nhttps 10.0.0.3 443\n# " + torLine,
		"  socks5 10.9.9.9 1080\n#" + torLine + "\n",
	}
	for _, content := range configs {
		fs, r := memConfig(t, content)
		g.Expect(r.SuppressOthers()).To(Succeed())
		g.Expect(r.Enable(torLine)).To(Succeed())

		active := activeDirectives(readString(t, fs, r.Path()))
		g.Expect(active).To(HaveLen(1), "config: %q", content)
		g.Expect(active[0]).To(ContainSubstring(torLine))
	}
}

func TestSuppressOthersCommentsSupportedProtocolsOnly(t *testing.T) {
	g := NewWithT(t)
	fs, r := memConfig(t, "strict_chain\nproxy_dns\n[ProxyList]\nsocks5 1.1.1.1 1080\n  http 2.2.2.2 80\n# socks4 3.3.3.3 1080\n")

	g.Expect(r.SuppressOthers()).To(Succeed())
	g.Expect(readString(t, fs, r.Path())).To(Equal(
		"strict_chain\nproxy_dns\n[ProxyList]\n# socks5 1.1.1.1 1080\n#   http 2.2.2.2 80\n# socks4 3.3.3.3 1080\n"))
}

func TestEnableMatchesBySubstring(t *testing.T) {
	g := NewWithT(t)
	fs, r := memConfig(t, "# tor is "+torLine+" here\n# "+torLine+"\n#"+chiselLine+"\n")

	g.Expect(r.Enable(torLine)).To(Succeed())

	// The prose comment mentions the directive too, so it is uncommented as well.
	g.Expect(readString(t, fs, r.Path())).To(Equal("tor is " + torLine + " here\n" + torLine + "\n#" + chiselLine + "\n"))
}

func TestEnableKeepsMissingTrailingNewline(t *testing.T) {
	g := NewWithT(t)
	fs, r := memConfig(t, "[ProxyList]\n# "+torLine)

	g.Expect(r.Enable(torLine)).To(Succeed())
	g.Expect(readString(t, fs, r.Path())).To(Equal("[ProxyList]\n" + torLine))
}

func TestEnableHandlesCRLF(t *testing.T) {
	g := NewWithT(t)
	fs, r := memConfig(t, "[ProxyList]\r\n# "+torLine+"\r\n")

	g.Expect(r.Enable(torLine)).To(Succeed())
	g.Expect(readString(t, fs, r.Path())).To(Equal("[ProxyList]\n" + torLine + "\n"))
}

func TestAppendAddsBlankLineAndDirective(t *testing.T) {
	g := NewWithT(t)
	fs, r := memConfig(t, "[ProxyList]\n# "+torLine+"\n")

	g.Expect(r.Append("http 10.0.0.1 3128")).To(Succeed())
	g.Expect(readString(t, fs, r.Path())).To(Equal("[ProxyList]\n# " + torLine + "\n\nhttp 10.0.0.1 3128\n"))
}

func TestRemoveExactAndCommentedCopies(t *testing.T) {
	g := NewWithT(t)
	fs, r := memConfig(t, "socks5 1.1.1.1 80\n# socks5 1.1.1.1 80\n# socks5 1.1.1.1 8080\nhttp 1.1.1.1 80\n")

	removed, err := r.Remove("socks5 1.1.1.1 80")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(removed).To(Equal(2))
	g.Expect(readString(t, fs, r.Path())).To(Equal("# socks5 1.1.1.1 8080\nhttp 1.1.1.1 80\n"))
}

func TestActiveDirective(t *testing.T) {
	g := NewWithT(t)

	_, r := memConfig(t, "# "+torLine+"\nhttp 10.0.0.5 3128 alice s3cret\nsocks5 1.1.1.1 80\n")
	d, err := r.ActiveDirective()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(d).To(Equal(models.Directive{Protocol: "http", Host: "10.0.0.5", Port: "3128", User: "alice", Password: "s3cret"}))

	_, r = memConfig(t, "# "+torLine+"\n")
	_, err = r.ActiveDirective()
	g.Expect(err).To(MatchError(ErrNoActiveDirective))
}

func TestRewriterMissingConfig(t *testing.T) {
	g := NewWithT(t)
	r := NewRewriter(afero.NewMemMapFs(), "/etc/proxychains.conf")

	g.Expect(r.Enable(torLine)).To(MatchError(ContainSubstring("failed to read /etc/proxychains.conf")))
	g.Expect(r.SuppressOthers()).NotTo(Succeed())
}
