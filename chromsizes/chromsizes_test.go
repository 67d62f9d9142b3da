package chromsizes

import (
	"github.com/vertgenlab/gonomics/chromInfo"
	"os"
	"path/filepath"
	"testing"
)

func TestReadSizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hg.chrom.sizes")
	err := os.WriteFile(path, []byte("chr2\t500\nchr1\t1000\t6\t60\t61\n"), 0644)
	if err != nil {
		t.Fatal(err)
	}
	s, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Names()[0] != "chr2" {
		t.Error("problem reading sizes", s.Names())
	}
	if size, found := s.Size("chr1"); !found || size != 1000 {
		t.Error("problem with Size", size, found)
	}
	if _, found := s.Size("chrX"); found {
		t.Error("unexpected chromosome chrX")
	}

	for name, content := range map[string]string{
		"short.tsv": "chr1\n",
		"nan.tsv":   "chr1\tlong\n",
		"dup.tsv":   "chr1\t10\nchr1\t10\n",
		"zero.tsv":  "chr1\t0\n",
		"empty.tsv": "",
	} {
		bad := filepath.Join(dir, name)
		if err = os.WriteFile(bad, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err = Read(bad); err == nil {
			t.Errorf("expected an error reading %s", name)
		}
	}
}

func TestDiploid(t *testing.T) {
	s, err := FromHeader([]chromInfo.ChromInfo{{Name: "chr1", Size: 1000}, {Name: "chr2", Size: 500}})
	if err != nil {
		t.Fatal(err)
	}
	separate := s.Diploid(false)
	if separate.String() != "chr1-r\t1000\nchr1-a\t1000\nchr2-r\t500\nchr2-a\t500\n" {
		t.Error("problem with separate homologs", separate.String())
	}
	merged := s.Diploid(true)
	if merged.String() != "chr1\t2000\nchr2\t1000\n" {
		t.Error("problem with merged homologs", merged.String())
	}

	restricted := s.Restrict([]string{"chr2", "chr9"})
	if restricted.Len() != 1 || restricted.Names()[0] != "chr2" {
		t.Error("problem with Restrict", restricted.Names())
	}

	path := filepath.Join(t.TempDir(), "diploid.chrom.sizes")
	Write(path, merged)
	again, err := Read(path)
	if err != nil || again.Map()["chr1"] != 2000 {
		t.Error("problem with write and read back", err)
	}
}
