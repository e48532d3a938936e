package shader

import (
	"math/rand/v2"
	"strings"
)

const obfuscatedLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Obfuscate renames every call and definition of the function name inside u
// to a random 16 letter identifier and returns that identifier. It lets
// several fragments implementing the same entry point live in one module.
//
// Source units are rewritten directly. Path and builder units get a define
// mapping `name(` to `new(`, a path unit becoming a builder for it. Resource
// units are left alone.
func Obfuscate(u *Unit, name string) string {
	obfuscated := randomName(16)
	from, to := name+"(", obfuscated+"("

	switch u.kind {
	case KindSource:
		*u = Source(strings.ReplaceAll(u.text, from, to))
	case KindPath:
		*u = Nested(NewBuilder().Include(*u).Define(from, to))
	case KindBuilder:
		u.builder.Define(from, to)
	}
	return obfuscated
}

// randomName picks n distinct letters.
func randomName(n int) string {
	letters := []byte(obfuscatedLetters)
	rand.Shuffle(len(letters), func(i, j int) {
		letters[i], letters[j] = letters[j], letters[i]
	})
	return string(letters[:n])
}
