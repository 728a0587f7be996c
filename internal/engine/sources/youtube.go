// Package sources acquires everything the study pipeline needs from YouTube:
// the video id, metadata and a transcript (genuine or synthetic).
//
// The YouTube code is split by responsibility:
//
//	youtube_url.go        video id parsing and canonical URLs
//	youtube_metadata.go   Data API v3, oEmbed and noembed lookups
//	youtube_innertube.go  watch page parsing and caption track decoding
//	youtube_transcript.go transcript strategies and the acquirer
//	youtube_filler.go     synthetic transcript when no captions exist
package sources
