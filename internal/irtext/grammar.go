package irtext

import "github.com/alecthomas/participle/v2/lexer"

// The textual grammar below mirrors grammar/grammar.go's style: one struct
// per production, struct tags carrying the participle BNF, alternation
// expressed as a union of pointer fields exactly like the teacher's
// Statement/PrimaryExpr. It describes assembly-level IR text, not source
// syntax, so productions are instructions and basic blocks rather than
// expressions and statements, but the shape (Program -> sequence of
// top-level items; Module -> sequence of member kinds) is the same.

type fileSyn struct {
	Pos    lexer.Position
	Module *moduleSyn `@@`
}

type moduleSyn struct {
	Pos     lexer.Position
	Pattern bool         `[ @"pattern" ]`
	Name    string       `"module" @Ident "{"`
	Structs []*structSyn `@@*`
	Globals []*globalSyn `@@*`
	Funcs   []*funcSyn   `@@*`
	Close   string       `"}"`
}

type structSyn struct {
	Pos    lexer.Position
	Name   string      `"struct" @Ident`
	Size   *int        `[ "size" @Integer ]`
	Fields []*fieldSyn `"{" @@* "}"`
	Metas  []*metaSyn  `@@*`
}

type fieldSyn struct {
	Name string  `@Ident ":"`
	Type *typeSyn `@@ ","`
}

type globalSyn struct {
	Name string      `"global" "@" @Ident ":"`
	Type *typeSyn    `@@`
	Init *operandSyn `[ "=" @@ ]`
}

// typeSyn matches one type production. Pointers are opaque ("ptr"), as in
// modern LLVM IR, since the comparator never needs element-type identity
// through a pointer for anything spec.md describes.
type typeSyn struct {
	Void   bool          `(  @"void"`
	Int    *string       ` | @IntType`
	Ptr    bool          ` | @"ptr"`
	Array  *arrayTypeSyn ` | @@`
	Struct *string       ` | "%" @Ident )`
}

type arrayTypeSyn struct {
	Len  string   `"[" @Integer "x"`
	Elem *typeSyn `@@ "]"`
}

type paramSyn struct {
	Type *typeSyn `@@`
	Name *string  `[ "%" @Ident ]`
}

type funcSyn struct {
	Pos     lexer.Position
	Declare bool         `(  @"declare"`
	Define  bool         ` | @"define" )`
	Ret     *typeSyn     `@@`
	Name    string       `"@" @Ident`
	Params  []*paramSyn  `"(" [ @@ { "," @@ } ] ")"`
	Vararg  bool         `[ @"vararg" ]`
	Metas   []*metaSyn   `@@*`
	Body    *funcBodySyn `[ @@ ]`
}

type funcBodySyn struct {
	Blocks []*blockSyn `"{" @@* "}"`
}

type blockSyn struct {
	Label string     `@Ident ":"`
	Insts []*instSyn `@@*`
}

type instSyn struct {
	Pos    lexer.Position
	Result *string    `[ "%" @(Ident|Integer) "=" ]`
	Op     *opSyn     `@@`
	Metas  []*metaSyn `@@*`
}

// opSyn is a union over every instruction production, mirroring
// PrimaryExpr's "one field per alternative, nil-check to discriminate"
// shape from grammar/grammar.go.
type opSyn struct {
	Binary      *binarySyn  `(  @@`
	ICmp        *icmpSyn    ` | @@`
	Load        *loadSyn    ` | @@`
	Store       *storeSyn   ` | @@`
	Alloca      *allocaSyn  ` | @@`
	Call        *callSyn    ` | @@`
	Cast        *castSyn    ` | @@`
	Phi         *phiSyn     ` | @@`
	GEP         *gepSyn     ` | @@`
	Asm         *asmSyn     ` | @@`
	Br          *brSyn      ` | @@`
	Switch      *switchSyn  ` | @@`
	Ret         *retSyn     ` | @@`
	Unreachable *string     ` | @"unreachable" )`
}

type binarySyn struct {
	Op    string      `@("add"|"sub"|"mul"|"udiv"|"sdiv"|"and"|"or"|"xor"|"shl"|"lshr"|"ashr")`
	Type  *typeSyn    `@@`
	Left  *operandSyn `@@ ","`
	Right *operandSyn `@@`
}

type icmpSyn struct {
	Kw    string      `"icmp"`
	Pred  string      `@("eq"|"ne"|"slt"|"sgt"|"sle"|"sge"|"ult"|"ugt"|"ule"|"uge")`
	Type  *typeSyn    `@@`
	Left  *operandSyn `@@ ","`
	Right *operandSyn `@@`
}

type loadSyn struct {
	Kw       string      `"load"`
	Type     *typeSyn    `@@ ","`
	Addr     *operandSyn `@@`
	Align    *int        `[ "," "align" @Integer ]`
	Volatile bool        `[ "," @"volatile" ]`
}

type storeSyn struct {
	Kw       string      `"store"`
	Val      *operandSyn `@@ ","`
	Addr     *operandSyn `@@`
	Align    *int        `[ "," "align" @Integer ]`
	Volatile bool        `[ "," @"volatile" ]`
}

type allocaSyn struct {
	Kw    string   `"alloca"`
	Type  *typeSyn `@@`
	Align *int     `[ "," "align" @Integer ]`
}

type callSyn struct {
	Kw        string        `"call"`
	Type      *typeSyn      `@@`
	Callee    string        `"@" @Ident`
	Args      []*operandSyn `"(" [ @@ { "," @@ } ] ")"`
	Intrinsic bool          `[ @"intrinsic" ]`
}

type castSyn struct {
	Kind string      `@("bitcast"|"trunc"|"zext"|"sext"|"ptrtoint"|"inttoptr")`
	From *typeSyn    `@@`
	Val  *operandSyn `@@ "to"`
	To   *typeSyn    `@@`
}

type phiEdgeSyn struct {
	Value *operandSyn `"[" @@ ","`
	Block string      `"%" @Ident "]"`
}

type phiSyn struct {
	Kw    string        `"phi"`
	Type  *typeSyn      `@@`
	Edges []*phiEdgeSyn `@@ { "," @@ }`
}

type gepSyn struct {
	Kw      string        `"getelementptr"`
	Type    *typeSyn      `@@ ","`
	Base    *operandSyn   `@@`
	Indices []*operandSyn `{ "," @@ }`
}

type asmSyn struct {
	Kw   string        `"asm"`
	Body string        `@String`
	Args []*operandSyn `"(" [ @@ { "," @@ } ] ")"`
}

type brSyn struct {
	Kw    string  `"br"`
	Cond  *operandSyn `[ @@ "," ]`
	True  string  `"label" "%" @Ident`
	False *string `[ "," "label" "%" @Ident ]`
}

type switchCaseSyn struct {
	Value *operandSyn `@@ ","`
	Block string      `"label" "%" @Ident`
}

type switchSyn struct {
	Kw      string           `"switch"`
	Value   *operandSyn      `@@ ","`
	Default string           `"label" "%" @Ident`
	Cases   []*switchCaseSyn `{ "[" @@ "]" }`
}

type retTypedSyn struct {
	Type  *typeSyn    `@@`
	Value *operandSyn `@@`
}

type retSyn struct {
	Kw    string       `"ret"`
	Void  *string      `(  @"void"`
	Typed *retTypedSyn ` | @@ )`
}

// operandSyn is a tagged reference: a literal, a global ("@name"), or a
// local name ("%name") resolved against the enclosing function's value
// table during the build pass (build.go), since whether "%name" denotes an
// argument, an instruction result, or a block label depends on where it
// appears, not on its own syntax.
type operandSyn struct {
	Str    *string `(  @String`
	Int    *string ` | @Integer`
	Bool   *string ` | @("true" | "false")`
	Global *string ` | "@" @Ident`
	Local  *string ` | "%" @(Ident|Integer) )`
}

// metaSyn is a generic "!name(args...)=value" annotation, covering every
// kind of side-channel metadata spec.md §3/§6 names (pattern-start,
// pattern-end, basic-block-limit-end, numerical-macro origin, debug
// file/line) through one production instead of one grammar rule per
// keyword, since they share nothing but the leading "!".
type metaSyn struct {
	Name string   `"!" @Ident`
	Args []string `[ "(" @Integer { "," @Integer } ")" ]`
	Eq   *string  `[ "=" @(Integer|Ident|String) ]`
}
