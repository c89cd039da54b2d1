// Package utils provides small helpers shared across the application:
// file name sanitizing, extension handling, file existence checks and content type detection.
package utils
