package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/config"
)

func writeYAML(dir, name, body string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(body), 0o644)).To(Succeed())
	return path
}

var _ = Describe("Load", func() {
	It("decodes a fully-specified document unchanged", func() {
		path := writeYAML(GinkgoT().TempDir(), "full.yaml", `
accelerator: nio
num_tile_rows: 2
num_tile_cols: 3
memory:
  words: 4096
  word_bytes: 4
  pipeline_depth: 3
  grain: 8
  trace: true
cache_entries: 16
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.NumTileRows).To(Equal(2))
		Expect(cfg.NumTileCols).To(Equal(3))
		Expect(cfg.Memory.Words).To(Equal(uint32(4096)))
		Expect(cfg.Memory.PipelineDepth).To(Equal(3))
		Expect(cfg.Memory.Grain).To(Equal(uint32(8)))
		Expect(cfg.Memory.Trace).To(BeTrue())
		Expect(cfg.CacheEntries).To(Equal(16))
	})

	It("fills in defaults for omitted optional fields", func() {
		path := writeYAML(GinkgoT().TempDir(), "minimal.yaml", `
accelerator: nio
num_tile_rows: 1
num_tile_cols: 1
memory:
  words: 256
`)
		cfg, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Memory.WordBytes).To(Equal(uint32(4)))
		Expect(cfg.Memory.PipelineDepth).To(Equal(2))
		Expect(cfg.Memory.Grain).To(Equal(uint32(4)))
		Expect(cfg.CacheEntries).To(Equal(64))
	})

	It("rejects an unsupported accelerator name", func() {
		path := writeYAML(GinkgoT().TempDir(), "bad.yaml", `
accelerator: other
num_tile_rows: 1
num_tile_cols: 1
memory:
  words: 256
`)
		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a non-positive tile grid", func() {
		path := writeYAML(GinkgoT().TempDir(), "badgrid.yaml", `
accelerator: nio
num_tile_rows: 0
num_tile_cols: 1
memory:
  words: 256
`)
		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("rejects zero memory words", func() {
		path := writeYAML(GinkgoT().TempDir(), "badwords.yaml", `
accelerator: nio
num_tile_rows: 1
num_tile_cols: 1
memory:
  words: 0
`)
		_, err := config.Load(path)
		Expect(err).To(HaveOccurred())
	})

	It("returns an error for a missing file", func() {
		_, err := config.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})
})
