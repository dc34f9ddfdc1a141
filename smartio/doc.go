// Package smartio opens and creates files with transparent compression
// chosen by file extension. Callers read and write plain bytes; gzip,
// zstd, and xz (plus bzip2 for reading) are handled underneath, and Close
// releases the whole codec/file chain.
package smartio
