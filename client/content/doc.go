// Package content captures HTTP bodies of unknown size without unbounded
// memory growth.
//
// # Spill Buffer
//
// A [Buffer] accumulates bytes in memory until the configured threshold is
// exceeded, then moves everything written so far to a temporary file and
// keeps appending there:
//
//	buf := content.NewBuffer(1<<20, os.TempDir(), logger)
//	defer buf.Close()
//	if _, err := io.Copy(buf, body); err != nil { ... }
//
// # Cache
//
// Once the buffer is flushed it is converted into an immutable [Cache],
// which can be read any number of times and owns the temporary file:
//
//	var c *content.Cache
//	if buf.InMemory() {
//		data, err := buf.Data()
//		...
//		c, err = content.FromBytes(data)
//	} else {
//		path, err := buf.File()
//		...
//		c, err = content.FromFile(path)
//	}
//	defer c.Close() // removes the temporary file, if any
package content
