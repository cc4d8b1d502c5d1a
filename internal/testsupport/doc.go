// Package testsupport holds fixtures shared by package tests: temp-rooted
// configs, stub media files and generated images.
package testsupport
