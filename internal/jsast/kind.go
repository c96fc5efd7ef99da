package jsast

import "fmt"

// Kind classifies a syntax node using ESTree-style names so that callers can
// match on node shape without knowing the grammar's own type names.
type Kind int

const (
	KindInvalid Kind = iota

	KindProgram

	// Statements
	KindBlockStatement
	KindBreakStatement
	KindClassDeclaration
	KindContinueStatement
	KindDebuggerStatement
	KindDoWhileStatement
	KindEmptyStatement
	KindExpressionStatement
	KindForInStatement
	KindForOfStatement
	KindForStatement
	KindFunctionDeclaration
	KindIfStatement
	KindLabeledStatement
	KindReturnStatement
	KindSwitchStatement
	KindThrowStatement
	KindTryStatement
	KindVariableDeclaration
	KindWhileStatement
	KindWithStatement

	// Module declarations
	KindImportDeclaration
	KindExportNamedDeclaration
	KindExportDefaultDeclaration
	KindExportAllDeclaration

	// Expressions
	KindIdentifier
	KindLiteral
	KindTemplateLiteral
	KindCallExpression
	KindNewExpression
	KindMemberExpression
	KindFunctionExpression
	KindArrowFunctionExpression
	KindAssignmentExpression
	KindArrayExpression
	KindObjectExpression
	KindBinaryExpression
	KindSequenceExpression
	KindThisExpression

	// Grammar-level nodes with no ESTree counterpart
	KindArguments
	KindComment
	KindHashbang
	KindToken
	KindOther

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:                  "Invalid",
	KindProgram:                  "Program",
	KindBlockStatement:           "BlockStatement",
	KindBreakStatement:           "BreakStatement",
	KindClassDeclaration:         "ClassDeclaration",
	KindContinueStatement:        "ContinueStatement",
	KindDebuggerStatement:        "DebuggerStatement",
	KindDoWhileStatement:         "DoWhileStatement",
	KindEmptyStatement:           "EmptyStatement",
	KindExpressionStatement:      "ExpressionStatement",
	KindForInStatement:           "ForInStatement",
	KindForOfStatement:           "ForOfStatement",
	KindForStatement:             "ForStatement",
	KindFunctionDeclaration:      "FunctionDeclaration",
	KindIfStatement:              "IfStatement",
	KindLabeledStatement:         "LabeledStatement",
	KindReturnStatement:          "ReturnStatement",
	KindSwitchStatement:          "SwitchStatement",
	KindThrowStatement:           "ThrowStatement",
	KindTryStatement:             "TryStatement",
	KindVariableDeclaration:      "VariableDeclaration",
	KindWhileStatement:           "WhileStatement",
	KindWithStatement:            "WithStatement",
	KindImportDeclaration:        "ImportDeclaration",
	KindExportNamedDeclaration:   "ExportNamedDeclaration",
	KindExportDefaultDeclaration: "ExportDefaultDeclaration",
	KindExportAllDeclaration:     "ExportAllDeclaration",
	KindIdentifier:               "Identifier",
	KindLiteral:                  "Literal",
	KindTemplateLiteral:          "TemplateLiteral",
	KindCallExpression:           "CallExpression",
	KindNewExpression:            "NewExpression",
	KindMemberExpression:         "MemberExpression",
	KindFunctionExpression:       "FunctionExpression",
	KindArrowFunctionExpression:  "ArrowFunctionExpression",
	KindAssignmentExpression:     "AssignmentExpression",
	KindArrayExpression:          "ArrayExpression",
	KindObjectExpression:         "ObjectExpression",
	KindBinaryExpression:         "BinaryExpression",
	KindSequenceExpression:       "SequenceExpression",
	KindThisExpression:           "ThisExpression",
	KindArguments:                "Arguments",
	KindComment:                  "Comment",
	KindHashbang:                 "Hashbang",
	KindToken:                    "Token",
	KindOther:                    "Other",
}

// String returns the ESTree-style name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the enumerated kinds.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < kindCount
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindInvalid + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// statementKinds are the kinds that may legally appear inside a function body.
var statementKinds = map[Kind]bool{
	KindBlockStatement:      true,
	KindBreakStatement:      true,
	KindClassDeclaration:    true,
	KindContinueStatement:   true,
	KindDebuggerStatement:   true,
	KindDoWhileStatement:    true,
	KindEmptyStatement:      true,
	KindExpressionStatement: true,
	KindForInStatement:      true,
	KindForOfStatement:      true,
	KindForStatement:        true,
	KindFunctionDeclaration: true,
	KindIfStatement:         true,
	KindLabeledStatement:    true,
	KindReturnStatement:     true,
	KindSwitchStatement:     true,
	KindThrowStatement:      true,
	KindTryStatement:        true,
	KindVariableDeclaration: true,
	KindWhileStatement:      true,
	KindWithStatement:       true,
}

// IsStatement reports whether k is a statement-level kind.
func (k Kind) IsStatement() bool {
	return statementKinds[k]
}

// IsModuleDeclaration reports whether k is import/export syntax.
func (k Kind) IsModuleDeclaration() bool {
	switch k {
	case KindImportDeclaration, KindExportNamedDeclaration,
		KindExportDefaultDeclaration, KindExportAllDeclaration:
		return true
	}
	return false
}

// grammarKinds maps tree-sitter-javascript node types to kinds. Types that
// need a look at their children (exports, for-in/of) are resolved in
// classify.
var grammarKinds = map[string]Kind{
	"program":                         KindProgram,
	"statement_block":                 KindBlockStatement,
	"break_statement":                 KindBreakStatement,
	"class_declaration":               KindClassDeclaration,
	"continue_statement":              KindContinueStatement,
	"debugger_statement":              KindDebuggerStatement,
	"do_statement":                    KindDoWhileStatement,
	"empty_statement":                 KindEmptyStatement,
	"expression_statement":            KindExpressionStatement,
	"for_statement":                   KindForStatement,
	"function_declaration":            KindFunctionDeclaration,
	"generator_function_declaration":  KindFunctionDeclaration,
	"if_statement":                    KindIfStatement,
	"labeled_statement":               KindLabeledStatement,
	"return_statement":                KindReturnStatement,
	"switch_statement":                KindSwitchStatement,
	"throw_statement":                 KindThrowStatement,
	"try_statement":                   KindTryStatement,
	"variable_declaration":            KindVariableDeclaration,
	"lexical_declaration":             KindVariableDeclaration,
	"while_statement":                 KindWhileStatement,
	"with_statement":                  KindWithStatement,
	"import_statement":                KindImportDeclaration,
	"identifier":                      KindIdentifier,
	"property_identifier":             KindIdentifier,
	"shorthand_property_identifier":   KindIdentifier,
	"statement_identifier":            KindIdentifier,
	"undefined":                       KindIdentifier,
	"string":                          KindLiteral,
	"number":                          KindLiteral,
	"true":                            KindLiteral,
	"false":                           KindLiteral,
	"null":                            KindLiteral,
	"regex":                           KindLiteral,
	"template_string":                 KindTemplateLiteral,
	"call_expression":                 KindCallExpression,
	"new_expression":                  KindNewExpression,
	"member_expression":               KindMemberExpression,
	"function_expression":             KindFunctionExpression,
	"function":                        KindFunctionExpression,
	"generator_function":              KindFunctionExpression,
	"arrow_function":                  KindArrowFunctionExpression,
	"assignment_expression":           KindAssignmentExpression,
	"augmented_assignment_expression": KindAssignmentExpression,
	"array":                           KindArrayExpression,
	"object":                          KindObjectExpression,
	"binary_expression":               KindBinaryExpression,
	"sequence_expression":             KindSequenceExpression,
	"this":                            KindThisExpression,
	"arguments":                       KindArguments,
	"comment":                         KindComment,
	"hash_bang_line":                  KindHashbang,
}

// classify resolves the kind of a converted grammar node. Anonymous nodes are
// tokens; named nodes without a dedicated kind are KindOther.
func classify(grammarType string, named bool, children []*Node) Kind {
	if !named {
		return KindToken
	}
	switch grammarType {
	case "export_statement":
		for _, c := range children {
			if c.Kind != KindToken {
				continue
			}
			switch c.Text {
			case "default":
				return KindExportDefaultDeclaration
			case "*":
				return KindExportAllDeclaration
			}
		}
		return KindExportNamedDeclaration
	case "for_in_statement":
		for _, c := range children {
			if c.Kind == KindToken && c.Text == "of" {
				return KindForOfStatement
			}
		}
		return KindForInStatement
	}
	if k, ok := grammarKinds[grammarType]; ok {
		return k
	}
	return KindOther
}
