// Enumgen generates Name methods for integer enum types. It scans the
// source file named by GOFILE or -file for types whose doc comment
// carries a go:generate enumgen directive and writes one
// <file>_enumgen.go covering all of them, so repeated per-type
// directives in the same file regenerate identical output.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/tools/go/packages"
)

type enumType struct {
	Name   string
	Signed bool
	Consts []string
	seen   map[string]bool
	obj    *types.TypeName
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "enumgen: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fileFlag := flag.String("file", "", "go file containing //go:generate enumgen")
	typeFlag := flag.String("type", "", "comma-separated enum type names to require")
	flag.Parse()

	fileName := strings.TrimSpace(*fileFlag)
	if fileName == "" && flag.NArg() > 0 {
		fileName = strings.TrimSpace(flag.Arg(0))
	}
	if fileName == "" {
		fileName = strings.TrimSpace(os.Getenv("GOFILE"))
	}
	if fileName == "" {
		return errors.New("missing source file; set GOFILE or pass -file")
	}
	fileName = filepath.Base(fileName)
	if filepath.Ext(fileName) != ".go" {
		return fmt.Errorf("source file must be a .go file: %s", fileName)
	}

	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	cfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo |
			packages.NeedFiles |
			packages.NeedCompiledGoFiles,
		Dir: dir,
		ParseFile: func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
			return parser.ParseFile(fset, filename, src, parser.ParseComments)
		},
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		return errors.New("no packages found")
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return fmt.Errorf("type check failed: %s", pkg.Errors[0])
	}
	if pkg.Fset == nil {
		return errors.New("missing fileset")
	}
	if len(pkg.Syntax) == 0 {
		return errors.New("no go files found in package")
	}

	var targetFile *ast.File
	for i, file := range pkg.Syntax {
		var name string
		if i < len(pkg.CompiledGoFiles) {
			name = pkg.CompiledGoFiles[i]
		} else if i < len(pkg.GoFiles) {
			name = pkg.GoFiles[i]
		}
		if filepath.Base(name) == fileName {
			targetFile = file
			break
		}
	}
	if targetFile == nil {
		return fmt.Errorf("file %s not found in package", fileName)
	}

	enums, err := collectEnumTypes(targetFile, pkg.TypesInfo, pkg.Fset)
	if err != nil {
		return err
	}
	if len(enums) == 0 {
		return fmt.Errorf("no enumgen types found in %s", fileName)
	}
	if err := requireTypes(*typeFlag, enums); err != nil {
		return err
	}
	collectConstants(targetFile, pkg.TypesInfo, enums)
	for _, e := range enums {
		if len(e.Consts) == 0 {
			return fmt.Errorf("no constants of type %s in %s", e.Name, fileName)
		}
	}

	out, err := render(pkg.Name, enums)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(fileName, ".go")
	outPath := filepath.Join(dir, base+"_enumgen.go")
	return os.WriteFile(outPath, out, 0o644)
}

// collectEnumTypes finds the types in the file marked with an enumgen
// directive. Each must be a named integer type.
func collectEnumTypes(file *ast.File, info *types.Info, fset *token.FileSet) ([]*enumType, error) {
	var results []*enumType
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if !commentGroupHasEnumgen(typeSpec.Doc) && !commentGroupHasEnumgen(gen.Doc) {
				continue
			}

			obj := info.Defs[typeSpec.Name]
			if obj == nil {
				pos := fset.Position(typeSpec.Pos())
				return nil, fmt.Errorf("missing type info for %s at %s", typeSpec.Name.Name, pos)
			}
			name, ok := obj.(*types.TypeName)
			if !ok {
				pos := fset.Position(typeSpec.Pos())
				return nil, fmt.Errorf("expected type name for %s at %s", typeSpec.Name.Name, pos)
			}
			basic, ok := name.Type().Underlying().(*types.Basic)
			if !ok || basic.Info()&types.IsInteger == 0 {
				pos := fset.Position(typeSpec.Pos())
				return nil, fmt.Errorf("enumgen requires an integer type at %s", pos)
			}

			results = append(results, &enumType{
				Name:   typeSpec.Name.Name,
				Signed: basic.Info()&types.IsUnsigned == 0,
				seen:   make(map[string]bool),
				obj:    name,
			})
		}
	}
	return results, nil
}

// collectConstants gathers each enum's constants in declaration order.
// Later constants with a value already seen are aliases and skipped, so
// the generated switch has one case per value.
func collectConstants(file *ast.File, info *types.Info, enums []*enumType) {
	byObj := make(map[*types.TypeName]*enumType, len(enums))
	for _, e := range enums {
		byObj[e.obj] = e
	}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			valueSpec, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, ident := range valueSpec.Names {
				if ident.Name == "_" {
					continue
				}
				cn, ok := info.Defs[ident].(*types.Const)
				if !ok {
					continue
				}
				named, ok := cn.Type().(*types.Named)
				if !ok {
					continue
				}
				e, ok := byObj[named.Obj()]
				if !ok {
					continue
				}
				key := cn.Val().ExactString()
				if e.seen[key] {
					continue
				}
				e.seen[key] = true
				e.Consts = append(e.Consts, ident.Name)
			}
		}
	}
}

func commentGroupHasEnumgen(group *ast.CommentGroup) bool {
	if group == nil {
		return false
	}
	for _, comment := range group.List {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment.Text), "//"))
		if !strings.HasPrefix(line, "go:generate") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "enumgen" {
			return true
		}
	}
	return false
}

func requireTypes(typeFlag string, enums []*enumType) error {
	names := make(map[string]bool, len(enums))
	for _, e := range enums {
		names[e.Name] = true
	}
	for _, want := range strings.Split(typeFlag, ",") {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		if !names[want] {
			return fmt.Errorf("type %s has no enumgen directive", want)
		}
	}
	return nil
}

func render(pkgName string, enums []*enumType) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by enumgen; DO NOT EDIT.\n\n")
	fmt.Fprintf(&buf, "package %s\n\n", pkgName)
	buf.WriteString("import \"strconv\"\n\n")

	for i, e := range enums {
		if i > 0 {
			buf.WriteString("\n")
		}
		writeNameMethod(&buf, e)
	}

	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeNameMethod(buf *bytes.Buffer, e *enumType) {
	stripped := strippedNames(e.Name, e.Consts)
	buf.WriteString("// Name returns the constant name with the common prefix stripped.\n")
	fmt.Fprintf(buf, "func (v %s) Name() string {\n", e.Name)
	buf.WriteString("\tswitch v {\n")
	for i, c := range e.Consts {
		fmt.Fprintf(buf, "\tcase %s:\n", c)
		fmt.Fprintf(buf, "\t\treturn %q\n", stripped[i])
	}
	buf.WriteString("\tdefault:\n")
	if e.Signed {
		fmt.Fprintf(buf, "\t\treturn %q + strconv.FormatInt(int64(v), 10) + \")\"\n", e.Name+"(")
	} else {
		fmt.Fprintf(buf, "\t\treturn %q + strconv.FormatUint(uint64(v), 10) + \")\"\n", e.Name+"(")
	}
	buf.WriteString("\t}\n")
	buf.WriteString("}\n")
}

// strippedNames drops the shared prefix from the constant names. The
// prefix is shrunk to a word boundary so a name is never cut mid-word,
// and never swallows a whole name.
func strippedNames(typeName string, names []string) []string {
	prefix := commonPrefix(names)
	if len(names) == 1 {
		prefix = ""
		if strings.HasPrefix(names[0], typeName) && len(names[0]) > len(typeName) {
			prefix = typeName
		}
	}
	for prefix != "" && !boundaryPrefix(prefix, names) {
		prefix = prefix[:len(prefix)-1]
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = strings.TrimPrefix(name, prefix)
	}
	return out
}

func boundaryPrefix(prefix string, names []string) bool {
	for _, name := range names {
		if len(name) <= len(prefix) {
			return false
		}
		r := rune(name[len(prefix)])
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func commonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, name := range names[1:] {
		for !strings.HasPrefix(name, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
