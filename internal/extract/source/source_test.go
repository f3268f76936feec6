package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsFixture = `import React, { useState } from 'react';
import * as utils from './utils';
import './styles.css';
const api = require('./api');
const lazy = import('./lazy');
import './utils';

export const answer = 42;
export function greet(name, greeting = 'hi') {
  return greeting + name;
}
export async function load(url) {
  return fetch(url);
}
const double = (n) => n * 2;
class Dog extends Animal {
  constructor() { super(); }
  bark() { return 'woof'; }
  async fetchBone(where) { return where; }
}
export { double, Dog as Puppy };
export default Dog;
module.exports = { greet, helper: double };
`

const tsFixture = `import type { Config } from './config';
import { Service } from '@app/service';

export interface User {
  id: number;
  name?: string;
}
export type ID = string | number;
export enum Color { Red, Green = 'g', Blue }
let counter: number = 0;
`

func names[T any](items []T, get func(T) string) []string {
	out := []string{}
	for _, it := range items {
		out = append(out, get(it))
	}
	return out
}

func parsers(ts bool) map[string]*Parser {
	if ts {
		return map[string]*Parser{
			"tree-sitter": NewTypeScript(),
			"patterns":    NewTypeScript(WithoutTreeSitter()),
		}
	}
	return map[string]*Parser{
		"tree-sitter": NewJavaScript(),
		"patterns":    NewJavaScript(WithoutTreeSitter()),
	}
}

func TestJavaScriptImportsAndExports(t *testing.T) {
	x := NewJavaScript().Extract(context.Background(), "/src/a.js", []byte(jsFixture))

	assert.Equal(t, []string{"react", "./utils", "./styles.css", "./api", "./lazy"}, x.Imports)
	kinds := map[string]string{}
	for _, r := range x.ImportRefs {
		if _, ok := kinds[r.Specifier]; !ok {
			kinds[r.Specifier] = r.Kind
		}
	}
	assert.Equal(t, KindRequire, kinds["./api"])
	assert.Equal(t, KindDynamic, kinds["./lazy"])
	assert.Equal(t, KindImport, kinds["./utils"])
	assert.Len(t, x.ImportRefs, 6)

	assert.ElementsMatch(t,
		[]string{"answer", "greet", "load", "double", "Dog", "default", "helper"},
		x.Exports)
}

func TestJavaScriptDeclarations(t *testing.T) {
	for name, p := range parsers(false) {
		t.Run(name, func(t *testing.T) {
			x := p.Extract(context.Background(), "/src/a.js", []byte(jsFixture))

			fns := map[string]Function{}
			for _, f := range x.Functions {
				fns[f.Name] = f
			}
			require.Contains(t, fns, "greet")
			assert.Equal(t, []string{"name", "greeting"}, fns["greet"].Params)
			assert.Equal(t, 9, fns["greet"].Line)
			require.Contains(t, fns, "load")
			assert.True(t, fns["load"].Async)
			require.Contains(t, fns, "double")
			assert.Equal(t, []string{"n"}, fns["double"].Params)

			require.Len(t, x.Classes, 1)
			assert.Equal(t, "Dog", x.Classes[0].Name)
			assert.Equal(t, "Animal", x.Classes[0].Extends)
			assert.Equal(t, []string{"bark", "fetchBone"}, x.Classes[0].Methods)

			vars := map[string]Variable{}
			for _, v := range x.Variables {
				vars[v.Name] = v
			}
			assert.True(t, vars["answer"].Exported)
			assert.Equal(t, "const", vars["answer"].Kind)
			assert.False(t, vars["double"].Exported)
		})
	}
}

func TestTypeScriptDeclarations(t *testing.T) {
	for name, p := range parsers(true) {
		t.Run(name, func(t *testing.T) {
			x := p.Extract(context.Background(), "/src/user.ts", []byte(tsFixture))

			assert.Equal(t, []string{"./config", "@app/service"}, x.Imports)
			assert.Equal(t, KindType, x.ImportRefs[0].Kind)
			assert.ElementsMatch(t, []string{"User", "ID", "Color"}, x.Exports)

			require.Len(t, x.Interfaces, 1)
			it := x.Interfaces[0]
			assert.Equal(t, "User", it.Name)
			assert.Equal(t, []Property{
				{Name: "id", Type: "number"},
				{Name: "name", Type: "string", Optional: true},
			}, it.Properties)

			require.Len(t, x.Types, 1)
			assert.Equal(t, "ID", x.Types[0].Name)
			assert.Equal(t, "string | number", x.Types[0].Definition)

			require.Len(t, x.Enums, 1)
			assert.Equal(t, []string{"Red", "Green", "Blue"}, x.Enums[0].Values)

			assert.Equal(t, []string{"counter"}, names(x.Variables, func(v Variable) string { return v.Name }))
		})
	}
}

func TestTypeScriptTypeOnlyExportLists(t *testing.T) {
	src := "import type { A } from './a';\ninterface B { id: number }\nexport type { A, B };\nexport type { C as D } from './c';\n"
	for name, p := range parsers(true) {
		t.Run(name, func(t *testing.T) {
			x := p.Extract(context.Background(), "/src/index.ts", []byte(src))

			assert.ElementsMatch(t, []string{"A", "B", "C"}, x.Exports)
			assert.Equal(t, []string{"./a", "./c"}, x.Imports)
			require.Len(t, x.ImportRefs, 2)
			assert.Equal(t, KindReexport, x.ImportRefs[1].Kind)
		})
	}
}

func TestMalformedInputNeverFails(t *testing.T) {
	src := []byte("import { from ;; class { function ( export {")
	for name, p := range parsers(true) {
		t.Run(name, func(t *testing.T) {
			x := p.Extract(context.Background(), "/bad.ts", src)
			require.NotNil(t, x)
			assert.Empty(t, x.Imports)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, tt := range []struct {
		path string
		lang string
		ok   bool
	}{
		{"/a/b.js", "javascript", true},
		{"/a/b.MJS", "javascript", true},
		{"/a/b.tsx", "typescript", true},
		{"/a/b.ts", "typescript", true},
		{"/a/b.go", "", false},
	} {
		e, ok := r.ForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if ok {
			assert.Equal(t, tt.lang, e.Language(), tt.path)
		}
	}
	assert.Contains(t, r.Extensions(), ".cjs")
}
