// Package language normalizes the BCP 47 tags used to select narration voices.
//
// Tags are parsed with golang.org/x/text/language so that inputs like "zh-cn",
// "zh_CN" or "cmn-Hans-CN" resolve to the form each speech provider expects.
package language
