package diff

import (
	"reflect"
	"testing"
)

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n", "not a diff at all"} {
		got := Parse(in)
		if got == nil || len(got) != 0 {
			t.Errorf("Parse(%q) = %v, want empty slice", in, got)
		}
	}
}

func TestParse_SingleFile(t *testing.T) {
	diff := `diff --git a/foo.go b/foo.go
index 1234567..abcdefg 100644
--- a/foo.go
+++ b/foo.go
@@ -1,5 +1,6 @@ package main
 package main

 func main() {
+    fmt.Println("hello")
     fmt.Println("world")
 }
`
	files := Parse(diff)
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	f := files[0]
	if f.Path != "foo.go" || f.ChangeType != Modified || f.OldPath != "" {
		t.Errorf("file = %+v", f)
	}
	if len(f.Hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(f.Hunks))
	}
	h := f.Hunks[0]
	if h.OldStart != 1 || h.NewStart != 1 || h.NewLines != 6 {
		t.Errorf("hunk range = %+v", h)
	}
	if !reflect.DeepEqual(h.Added, []int{4}) || len(h.Removed) != 0 {
		t.Errorf("Added = %v Removed = %v, want [4] []", h.Added, h.Removed)
	}
	if !reflect.DeepEqual(f.ChangedSymbols, []string{"main"}) {
		t.Errorf("ChangedSymbols = %v, want [main] from the hunk header", f.ChangedSymbols)
	}
}

func TestParse_DefinitionsAcrossLanguages(t *testing.T) {
	diff := `diff --git a/app/service.py b/app/service.py
index 1111111..2222222 100644
--- a/app/service.py
+++ b/app/service.py
@@ -10,3 +10,5 @@ class BillingService:
     def existing(self):
         pass
+
+    async def get_renew(self, user):
+        return self.repo.load(user)
-def old_helper():
diff --git a/web/api.ts b/web/api.ts
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/web/api.ts
@@ -0,0 +1,3 @@
+export async function loadUsers() {}
+export const renew = async (id) => fetch(id);
+class Cart {}
diff --git a/src/Pay.php b/src/Pay.php
deleted file mode 100644
index 4444444..0000000
--- a/src/Pay.php
+++ /dev/null
@@ -1,2 +0,0 @@
-    public static function charge($x) {
-    }
`
	files := Parse(diff)
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %+v", len(files), files)
	}

	want := []struct {
		path    string
		typ     ChangeType
		symbols []string
	}{
		{"app/service.py", Modified, []string{"BillingService", "get_renew", "old_helper"}},
		{"web/api.ts", Added, []string{"loadUsers", "renew", "Cart"}},
		{"src/Pay.php", Deleted, []string{"charge"}},
	}
	for i, w := range want {
		f := files[i]
		if f.Path != w.path || f.ChangeType != w.typ {
			t.Errorf("file %d = %s (%s), want %s (%s)", i, f.Path, f.ChangeType, w.path, w.typ)
		}
		if !reflect.DeepEqual(f.ChangedSymbols, w.symbols) {
			t.Errorf("%s symbols = %v, want %v", w.path, f.ChangedSymbols, w.symbols)
		}
	}
}

func TestParse_Rename(t *testing.T) {
	diff := `diff --git a/old/util.go b/new/util.go
similarity index 90%
rename from old/util.go
rename to new/util.go
index 1111111..2222222 100644
--- a/old/util.go
+++ b/new/util.go
@@ -1,1 +1,1 @@
-func Helper() {}
+func HelperV2() {}
`
	files := Parse(diff)
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	f := files[0]
	if f.ChangeType != Renamed || f.Path != "new/util.go" || f.OldPath != "old/util.go" {
		t.Errorf("file = %+v", f)
	}
	if !reflect.DeepEqual(f.ChangedSymbols, []string{"Helper", "HelperV2"}) {
		t.Errorf("symbols = %v", f.ChangedSymbols)
	}
}

func TestDefinedSymbol(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"def foo(x):", "foo"},
		{"    async def bar(self):", "bar"},
		{"  public static function charge($x) {", "charge"},
		{"export async function loadUsers() {", "loadUsers"},
		{"const renew = async (id) => {", "renew"},
		{"let handler = function () {", "handler"},
		{"func (s *Server) Start(addr string) error {", "Start"},
		{"func main() {", "main"},
		{"abstract class Shape {", "Shape"},
		{"  private async render<T>(x: T) {", "render"},
		{"return foo(x)", ""},
		{"const x = 5", ""},
		{"def f():", ""}, // single-letter names are ignored
	}
	for _, tt := range tests {
		got, ok := DefinedSymbol(tt.line)
		if got != tt.want || ok != (tt.want != "") {
			t.Errorf("DefinedSymbol(%q) = %q, %v; want %q", tt.line, got, ok, tt.want)
		}
	}
}

func TestContextSymbols(t *testing.T) {
	tests := []struct {
		hint string
		want []string
	}{
		{"", nil},
		{"def handler(request):", []string{"handler"}},
		{"class UserController::show", []string{"UserController"}},
		{"UserController::show", []string{"UserController", "show"}},
		{"public function index()", []string{"index"}},
		{"render(", []string{"render"}},
	}
	for _, tt := range tests {
		if got := ContextSymbols(tt.hint); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ContextSymbols(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}
}

func TestIsSourceFile(t *testing.T) {
	tests := map[string]bool{
		"src/main.go":             true,
		"vendor/x/y.go":           false,
		"web/node_modules/a.js":   false,
		"go.sum":                  false,
		"package-lock.json":       false,
		"dist/app.min.js":         false,
		"api/service.pb.go":       false,
		"internal/diff/format.go": true,
	}
	for path, want := range tests {
		if got := IsSourceFile(path); got != want {
			t.Errorf("IsSourceFile(%q) = %v, want %v", path, got, want)
		}
	}
}
