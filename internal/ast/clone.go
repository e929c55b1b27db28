package ast

import "fmt"

// CloneTU returns a deep copy of tu.
func CloneTU(tu *TranslationUnit) *TranslationUnit {
	out := &TranslationUnit{Decls: make([]Decl, len(tu.Decls))}
	for i, d := range tu.Decls {
		out.Decls[i] = CloneDecl(d)
	}
	return out
}

// CloneDecl returns a deep copy of d.
func CloneDecl(d Decl) Decl {
	switch d := d.(type) {
	case *PPDirective:
		c := *d
		return &c
	case *FunctionPrototype:
		return cloneProto(d)
	case *FunctionDef:
		return &FunctionDef{Loc: d.Loc, Proto: cloneProto(d.Proto), Body: CloneStmt(d.Body).(*BlockStmt)}
	case *VariablesDecl:
		return CloneVariablesDecl(d)
	case *PrecisionDecl:
		c := *d
		return &c
	case *InterfaceBlock:
		c := *d
		c.Layout = append([]LayoutQualifier(nil), d.Layout...)
		c.Qualifiers = append([]string(nil), d.Qualifiers...)
		c.Members = make([]*StructField, len(d.Members))
		for i, m := range d.Members {
			c.Members[i] = cloneField(m)
		}
		c.Array = cloneArray(d.Array)
		return &c
	case *DefaultLayoutDecl:
		c := *d
		c.Layout = append([]LayoutQualifier(nil), d.Layout...)
		return &c
	}
	panic(fmt.Sprintf("ast: unknown declaration %T", d))
}

// CloneVariablesDecl returns a deep copy of d.
func CloneVariablesDecl(d *VariablesDecl) *VariablesDecl {
	out := &VariablesDecl{Loc: d.Loc, Type: CloneTypeSpec(d.Type)}
	for _, vdi := range d.Decls {
		out.Decls = append(out.Decls, CloneVarDeclInfo(vdi))
	}
	return out
}

// CloneVarDeclInfo returns a deep copy of vdi.
func CloneVarDeclInfo(vdi *VarDeclInfo) *VarDeclInfo {
	return &VarDeclInfo{Loc: vdi.Loc, Name: vdi.Name, Array: cloneArray(vdi.Array), Init: CloneExpr(vdi.Init)}
}

// CloneTypeSpec returns a deep copy of t.
func CloneTypeSpec(t *TypeSpec) *TypeSpec {
	if t == nil {
		return nil
	}
	c := *t
	c.Layout = append([]LayoutQualifier(nil), t.Layout...)
	c.Qualifiers = append([]string(nil), t.Qualifiers...)
	if t.Struct != nil {
		c.Struct = CloneStructDef(t.Struct)
	}
	return &c
}

// CloneStructDef returns a deep copy of s.
func CloneStructDef(s *StructDef) *StructDef {
	out := &StructDef{Loc: s.Loc, Name: s.Name}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, cloneField(f))
	}
	return out
}

func cloneField(f *StructField) *StructField {
	return &StructField{Loc: f.Loc, Type: CloneTypeSpec(f.Type), Name: f.Name, Array: cloneArray(f.Array)}
}

func cloneProto(p *FunctionPrototype) *FunctionPrototype {
	out := &FunctionPrototype{Loc: p.Loc, ReturnType: CloneTypeSpec(p.ReturnType), Name: p.Name}
	for _, param := range p.Params {
		out.Params = append(out.Params, CloneParam(param))
	}
	return out
}

// CloneParam returns a deep copy of p.
func CloneParam(p *ParamDecl) *ParamDecl {
	return &ParamDecl{Loc: p.Loc, Type: CloneTypeSpec(p.Type), Name: p.Name, Array: cloneArray(p.Array)}
}

func cloneArray(a *ArrayInfo) *ArrayInfo {
	if a == nil {
		return nil
	}
	return &ArrayInfo{Loc: a.Loc, Size: CloneExpr(a.Size)}
}

// CloneExpr returns a deep copy of e; nil stays nil.
func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case nil:
		return nil
	case *Ident:
		c := *e
		return &c
	case *IntLit:
		c := *e
		return &c
	case *UintLit:
		c := *e
		return &c
	case *FloatLit:
		c := *e
		return &c
	case *BoolLit:
		c := *e
		return &c
	case *BinaryExpr:
		return &BinaryExpr{Loc: e.Loc, Op: e.Op, X: CloneExpr(e.X), Y: CloneExpr(e.Y)}
	case *UnaryExpr:
		return &UnaryExpr{Loc: e.Loc, Op: e.Op, X: CloneExpr(e.X)}
	case *TernaryExpr:
		return &TernaryExpr{Loc: e.Loc, Cond: CloneExpr(e.Cond), Then: CloneExpr(e.Then), Else: CloneExpr(e.Else)}
	case *ParenExpr:
		return &ParenExpr{Loc: e.Loc, X: CloneExpr(e.X)}
	case *CallExpr:
		return &CallExpr{Loc: e.Loc, Callee: e.Callee, Args: cloneExprs(e.Args)}
	case *ConstructorExpr:
		return &ConstructorExpr{Loc: e.Loc, Type: e.Type, Args: cloneExprs(e.Args)}
	case *ArrayConstructorExpr:
		return &ArrayConstructorExpr{Loc: e.Loc, Elem: e.Elem, Size: CloneExpr(e.Size), Args: cloneExprs(e.Args)}
	case *IndexExpr:
		return &IndexExpr{Loc: e.Loc, X: CloneExpr(e.X), Index: CloneExpr(e.Index)}
	case *MemberExpr:
		return &MemberExpr{Loc: e.Loc, X: CloneExpr(e.X), Member: e.Member}
	}
	panic(fmt.Sprintf("ast: unknown expression %T", e))
}

func cloneExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = CloneExpr(e)
	}
	return out
}

// CloneStmt returns a deep copy of s; nil stays nil.
func CloneStmt(s Stmt) Stmt {
	switch s := s.(type) {
	case nil:
		return nil
	case *BlockStmt:
		out := &BlockStmt{Loc: s.Loc, NewScope: s.NewScope, Stmts: make([]Stmt, len(s.Stmts))}
		for i, x := range s.Stmts {
			out.Stmts[i] = CloneStmt(x)
		}
		return out
	case *DeclStmt:
		return &DeclStmt{Loc: s.Loc, Decl: CloneVariablesDecl(s.Decl)}
	case *ExprStmt:
		return &ExprStmt{Loc: s.Loc, X: CloneExpr(s.X)}
	case *IfStmt:
		return &IfStmt{Loc: s.Loc, Cond: CloneExpr(s.Cond), Then: CloneStmt(s.Then), Else: CloneStmt(s.Else)}
	case *ForStmt:
		return &ForStmt{Loc: s.Loc, Init: CloneStmt(s.Init), Cond: CloneExpr(s.Cond), Incr: CloneExpr(s.Incr), Body: CloneStmt(s.Body)}
	case *WhileStmt:
		return &WhileStmt{Loc: s.Loc, Cond: CloneExpr(s.Cond), Body: CloneStmt(s.Body)}
	case *DoStmt:
		return &DoStmt{Loc: s.Loc, Body: CloneStmt(s.Body), Cond: CloneExpr(s.Cond)}
	case *SwitchStmt:
		return &SwitchStmt{Loc: s.Loc, X: CloneExpr(s.X), Body: CloneStmt(s.Body).(*BlockStmt)}
	case *ExprCaseLabel:
		return &ExprCaseLabel{Loc: s.Loc, X: CloneExpr(s.X)}
	case *DefaultCaseLabel:
		return &DefaultCaseLabel{Loc: s.Loc}
	case *BreakStmt:
		return &BreakStmt{Loc: s.Loc}
	case *ContinueStmt:
		return &ContinueStmt{Loc: s.Loc}
	case *DiscardStmt:
		return &DiscardStmt{Loc: s.Loc}
	case *ReturnStmt:
		return &ReturnStmt{Loc: s.Loc, X: CloneExpr(s.X)}
	case *NullStmt:
		return &NullStmt{Loc: s.Loc}
	}
	panic(fmt.Sprintf("ast: unknown statement %T", s))
}
