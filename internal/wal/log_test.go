package wal_test

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ondisk/seglog/internal/codec"
	"github.com/ondisk/seglog/internal/wal"
)

var _ = Describe("Log", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-wal-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	for _, format := range []codec.Format{codec.Binary, codec.JSON} {
		format := format

		Context("using the "+format.String()+" format", func() {
			Context("basic append and read", func() {
				It("returns entries in the order they were written", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					By("the log starting empty")
					first, err := l.FirstIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(first).To(BeZero())
					last, err := l.LastIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(last).To(BeZero())

					By("writing three entries")
					Expect(l.Write(1, []byte("one"))).To(Succeed())
					Expect(l.Write(2, []byte("two"))).To(Succeed())
					Expect(l.Write(3, []byte("three"))).To(Succeed())

					first, err = l.FirstIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(first).To(Equal(uint64(1)))
					last, err = l.LastIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(last).To(Equal(uint64(3)))

					By("reading them back")
					data, err := l.Read(1)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte("one")))
					data, err = l.Read(2)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte("two")))
					data, err = l.Read(3)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte("three")))
				})

				It("survives being closed and reopened", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					Expect(l.Write(1, []byte("alpha"))).To(Succeed())
					Expect(l.Write(2, []byte("beta"))).To(Succeed())
					Expect(l.Close()).To(Succeed())

					l2, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l2.Close() }()

					last, err := l2.LastIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(last).To(Equal(uint64(2)))

					data, err := l2.Read(2)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte("beta")))
				})

				It("rejects out-of-order writes", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					Expect(l.Write(1, []byte("one"))).To(Succeed())
					Expect(errors.Is(l.Write(3, []byte("skipped two")), wal.ErrOutOfOrder)).To(BeTrue())
				})

				It("rejects reads out of range", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					Expect(l.Write(1, []byte("one"))).To(Succeed())
					_, err = l.Read(0)
					Expect(errors.Is(err, wal.ErrNotFound)).To(BeTrue())
					_, err = l.Read(2)
					Expect(errors.Is(err, wal.ErrNotFound)).To(BeTrue())
				})
			})

			Context("truncation", func() {
				It("discards entries before the given index with TruncateFront", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					for i := uint64(1); i <= 5; i++ {
						Expect(l.Write(i, []byte{byte('a' + i)})).To(Succeed())
					}

					Expect(l.TruncateFront(3)).To(Succeed())

					first, err := l.FirstIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(first).To(Equal(uint64(3)))

					_, err = l.Read(2)
					Expect(errors.Is(err, wal.ErrNotFound)).To(BeTrue())

					data, err := l.Read(3)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte{byte('a' + 3)}))

					data, err = l.Read(5)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte{byte('a' + 5)}))
				})

				It("discards entries after the given index with TruncateBack", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					for i := uint64(1); i <= 5; i++ {
						Expect(l.Write(i, []byte{byte('a' + i)})).To(Succeed())
					}

					Expect(l.TruncateBack(3)).To(Succeed())

					last, err := l.LastIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(last).To(Equal(uint64(3)))

					_, err = l.Read(4)
					Expect(errors.Is(err, wal.ErrNotFound)).To(BeTrue())

					data, err := l.Read(3)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte{byte('a' + 3)}))

					By("allowing further writes to continue after the new last index")
					Expect(l.Write(4, []byte("resumed"))).To(Succeed())
					data, err = l.Read(4)
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte("resumed")))
				})

				It("treats truncating to the current front or back as a no-op", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					for i := uint64(1); i <= 3; i++ {
						Expect(l.Write(i, []byte{byte('a' + i)})).To(Succeed())
					}

					Expect(l.TruncateFront(1)).To(Succeed())
					Expect(l.TruncateBack(3)).To(Succeed())

					first, err := l.FirstIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(first).To(Equal(uint64(1)))
					last, err := l.LastIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(last).To(Equal(uint64(3)))
				})

				It("reports out of range on an empty log", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l.Close() }()

					Expect(errors.Is(l.TruncateFront(1), wal.ErrOutOfRange)).To(BeTrue())
					Expect(errors.Is(l.TruncateBack(1), wal.ErrOutOfRange)).To(BeTrue())
				})

				It("survives a truncate-front marker left behind by a crash", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					for i := uint64(1); i <= 3; i++ {
						Expect(l.Write(i, []byte{byte('a' + i)})).To(Succeed())
					}
					Expect(l.Close()).To(Succeed())

					By("simulating a crash between the START rename and cleanup")
					entries, err := os.ReadDir(dir)
					Expect(err).NotTo(HaveOccurred())
					Expect(entries).To(HaveLen(1))
					plain := entries[0].Name()
					startPath := filepath.Join(dir, plain+".START")
					Expect(os.Rename(filepath.Join(dir, plain), startPath)).To(Succeed())

					l2, err := wal.Open(dir, wal.WithLogFormat(format))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l2.Close() }()

					_, err = os.Stat(startPath)
					Expect(os.IsNotExist(err)).To(BeTrue())

					last, err := l2.LastIndex()
					Expect(err).NotTo(HaveOccurred())
					Expect(last).To(Equal(uint64(3)))
				})
			})

			Context("sticky corruption", func() {
				It("poisons every subsequent operation once a segment's on-disk data cannot be trusted", func() {
					l, err := wal.Open(dir, wal.WithLogFormat(format), wal.WithSegmentSize(1))
					Expect(err).NotTo(HaveOccurred())
					Expect(l.Write(1, []byte("a"))).To(Succeed())
					Expect(l.Write(2, []byte("b"))).To(Succeed())
					Expect(l.Write(3, []byte("c"))).To(Succeed())
					Expect(l.Close()).To(Succeed())

					By("corrupting an already-cycled, non-tail segment on disk")
					entries, err := os.ReadDir(dir)
					Expect(err).NotTo(HaveOccurred())
					Expect(len(entries)).To(BeNumerically(">=", 2))
					names := make([]string, 0, len(entries))
					for _, e := range entries {
						names = append(names, e.Name())
					}
					sort.Strings(names)
					firstSegPath := filepath.Join(dir, names[0])
					Expect(os.WriteFile(firstSegPath, []byte{0xff, 0xff, 0xff, 0xff, 0xff}, 0o640)).To(Succeed())

					By("reopening without error, since only the tail segment is read back at open time")
					l2, err := wal.Open(dir, wal.WithLogFormat(format), wal.WithSegmentSize(1))
					Expect(err).NotTo(HaveOccurred())
					defer func() { _ = l2.Close() }()

					By("discovering the corruption only once the bad segment is actually read")
					_, readErr := l2.Read(1)
					Expect(errors.Is(readErr, wal.ErrCorrupt)).To(BeTrue())

					By("poisoning every later call on the same instance, not just the one that found it")
					_, err = l2.FirstIndex()
					Expect(errors.Is(err, wal.ErrCorrupt)).To(BeTrue())
					Expect(errors.Is(l2.Write(4, []byte("d")), wal.ErrCorrupt)).To(BeTrue())
				})
			})
		})
	}

	Context("JSON format with non-UTF-8 payloads", func() {
		It("round-trips binary data via the base64 fallback tag", func() {
			l, err := wal.Open(dir, wal.WithLogFormat(codec.JSON))
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = l.Close() }()

			payload := []byte{0x00, 0xff, 0xfe, 0x80, 0x01}
			Expect(l.Write(1, payload)).To(Succeed())

			data, err := l.Read(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(payload))
		})

		It("round-trips plain UTF-8 data via the inline tag", func() {
			l, err := wal.Open(dir, wal.WithLogFormat(codec.JSON))
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = l.Close() }()

			Expect(l.Write(1, []byte("hello world"))).To(Succeed())

			data, err := l.Read(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("hello world")))
		})
	})

	Context("segment cache eviction", func() {
		It("reloads a segment from disk after it is evicted from a size-1 cache", func() {
			l, err := wal.Open(dir, wal.WithSegmentCacheSize(1), wal.WithSegmentSize(1))
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = l.Close() }()

			for i := uint64(1); i <= 6; i++ {
				Expect(l.Write(i, []byte{byte('a' + i)})).To(Succeed())
			}

			By("reading the oldest segment back in after later segments evicted it from cache")
			data, err := l.Read(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte{byte('a' + 1)}))

			data, err = l.Read(6)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte{byte('a' + 6)}))
		})
	})

	Context("closing", func() {
		It("is idempotent", func() {
			l, err := wal.Open(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Close()).To(Succeed())
			Expect(l.Close()).To(Succeed())
		})

		It("rejects operations after close", func() {
			l, err := wal.Open(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.Close()).To(Succeed())
			Expect(errors.Is(l.Write(1, []byte("x")), wal.ErrClosed)).To(BeTrue())
		})
	})

	Context("configuration", func() {
		It("rejects the reserved :memory: directory", func() {
			_, err := wal.Open(":memory:")
			Expect(errors.Is(err, wal.ErrInvalid)).To(BeTrue())
		})
	})
})
