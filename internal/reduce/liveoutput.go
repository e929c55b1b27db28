package reduce

import (
	"strings"

	"github.com/HugoDaniel/glslreduce/internal/ast"
	"github.com/HugoDaniel/glslreduce/internal/injection"
	"github.com/HugoDaniel/glslreduce/internal/scope"
	"github.com/HugoDaniel/glslreduce/internal/shaderjob"
)

// outputWrite is a live-injected write to an output variable, protected by
// a backup of the variable:
//
//	{
//	  vec4 _GLF_outVarBackupcolor;
//	  _GLF_outVarBackupcolor = color;
//	  color = ...;
//	  color = _GLF_outVarBackupcolor;
//	}
//
// The restore may also sit under if (_GLF_WRAPPED_IF_TRUE(...)). Removing
// the declaration and everything from the backup to the restore leaves the
// output untouched.
type outputWrite struct {
	base
	block  *ast.BlockStmt
	backup string
}

func (o *outputWrite) Kind() Kind { return KindLiveOutputWrite }

func (o *outputWrite) String() string {
	return "remove live write to " + o.original()
}

func (o *outputWrite) original() string {
	return strings.TrimPrefix(o.backup, injection.OutVarBackup)
}

// indices returns the positions in the block of the backup declaration,
// of the copy into the backup and of the restore.
func (o *outputWrite) indices() (decl, save, restore int, ok bool) {
	decl, save, restore = -1, -1, -1
	for i, s := range o.block.Stmts {
		switch {
		case decl < 0 && declaresName(s, o.backup):
			decl = i
		case save < 0 && isCopy(s, o.backup, o.original()):
			save = i
		case restore < 0 && isRestore(s, o.original(), o.backup):
			restore = i
		}
	}
	ok = decl >= 0 && save >= 0 && restore >= 0 && decl < save && save < restore
	return decl, save, restore, ok
}

func (o *outputWrite) Precondition() bool {
	decl, save, restore, ok := o.indices()
	if !ok {
		return false
	}
	for i := decl + 1; i < save; i++ {
		if mentions(o.block.Stmts[i], o.backup) {
			return false
		}
	}
	for i := restore + 1; i < len(o.block.Stmts); i++ {
		if mentions(o.block.Stmts[i], o.backup) {
			return false
		}
	}
	return true
}

func (o *outputWrite) Apply() error {
	decl, save, restore, ok := o.indices()
	if !ok {
		return invariant(KindLiveOutputWrite, "backup of %s is no longer saved and restored", o.original())
	}
	var kept []ast.Stmt
	for i, s := range o.block.Stmts {
		if i == decl || (i >= save && i <= restore) {
			continue
		}
		kept = append(kept, s)
	}
	o.block.Stmts = kept
	return nil
}

func declaresName(s ast.Stmt, name string) bool {
	d, ok := s.(*ast.DeclStmt)
	if !ok {
		return false
	}
	for _, info := range d.Decl.Decls {
		if info.Name == name {
			return true
		}
	}
	return false
}

// isCopy reports whether s is "lhs = rhs;" with both sides plain names.
func isCopy(s ast.Stmt, lhs, rhs string) bool {
	es, ok := s.(*ast.ExprStmt)
	if !ok {
		return false
	}
	b, ok := es.X.(*ast.BinaryExpr)
	if !ok || b.Op != ast.BinAssign {
		return false
	}
	l, ok := b.X.(*ast.Ident)
	if !ok || l.Name != lhs {
		return false
	}
	r, ok := b.Y.(*ast.Ident)
	return ok && r.Name == rhs
}

// isRestore reports whether s copies the backup back, either directly or
// under an always-true wrapped if.
func isRestore(s ast.Stmt, original, backup string) bool {
	if isCopy(s, original, backup) {
		return true
	}
	is, ok := s.(*ast.IfStmt)
	if !ok || injection.MacroOf(is.Cond) != injection.MacroWrappedIfTrue {
		return false
	}
	if isCopy(is.Then, original, backup) {
		return true
	}
	b, ok := is.Then.(*ast.BlockStmt)
	return ok && len(b.Stmts) == 1 && isCopy(b.Stmts[0], original, backup)
}

// backupIn returns the name of the first output backup a block declares.
func backupIn(block *ast.BlockStmt) (string, bool) {
	for _, s := range block.Stmts {
		d, ok := s.(*ast.DeclStmt)
		if !ok {
			continue
		}
		for _, info := range d.Decl.Decls {
			if strings.HasPrefix(info.Name, injection.OutVarBackup) {
				return d.Decl.Decls[0].Name, true
			}
		}
	}
	return "", false
}

type liveOutputFinder struct {
	*walk
}

func findLiveOutputWrite(job *shaderjob.Job, tu *ast.TranslationUnit, ctx *Context) []Opportunity {
	f := &liveOutputFinder{newWalk(job, tu, ctx)}
	return f.run(f)
}

func (f *liveOutputFinder) Leave(w *scope.Walker, n ast.Node) {
	block, ok := n.(*ast.BlockStmt)
	if !ok {
		return
	}
	if _, ok := w.Parent().(*ast.BlockStmt); !ok {
		return
	}
	backup, ok := backupIn(block)
	if !ok {
		return
	}
	f.add(&outputWrite{base: base{w.Depth()}, block: block, backup: backup})
}
