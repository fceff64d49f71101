// Package capture abstracts the external programs that record audio
// streams: streamripper, wget, and ffmpeg.
//
// Backends only build command lines; execution goes through the Executor
// so tests can substitute stubs, and through Run, which applies the one
// policy shared by live sessions and stream tests: bound the process with
// duration plus grace, then judge the attempt purely by exit status and
// artifact size. The Registry fixes the fallback order and carries the
// sticky-recommendation selection used before every attempt.
package capture
