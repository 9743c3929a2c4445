package types

import (
	"fmt"
	"sort"
	"strings"
)

const showDepthLimit = 10

// TypeName renders a type for diagnostics. It is not a parseable syntax,
// just enough for a human to recognise the shape.
func TypeName(ty TypeId) string {
	var sb strings.Builder
	showType(&sb, ty, map[TypeId]struct{}{}, 0)
	return sb.String()
}

// PackName renders a type pack for diagnostics.
func PackName(tp TypePackId) string {
	var sb strings.Builder
	showPack(&sb, tp, map[TypeId]struct{}{}, 0)
	return sb.String()
}

func showType(sb *strings.Builder, ty TypeId, seen map[TypeId]struct{}, depth int) {
	if depth > showDepthLimit {
		sb.WriteString("...")
		return
	}
	ty = Follow(ty)
	if _, ok := seen[ty]; ok {
		sb.WriteString("<cycle>")
		return
	}
	seen[ty] = struct{}{}
	defer delete(seen, ty)

	switch v := ty.variant.(type) {
	case *FreeType:
		fmt.Fprintf(sb, "'t%d", ty.seq)
	case *GenericType:
		if v.Name != "" {
			sb.WriteString(v.Name)
		} else {
			fmt.Fprintf(sb, "T%d", ty.seq)
		}
	case *BlockedType:
		fmt.Fprintf(sb, "*blocked-%d*", ty.seq)
	case *PendingExpansionType:
		if v.Prefix != "" {
			fmt.Fprintf(sb, "*pending-expansion of %s.%s*", v.Prefix, v.Name)
		} else {
			fmt.Fprintf(sb, "*pending-expansion of %s*", v.Name)
		}
	case *TypeFamilyInstanceType:
		fmt.Fprintf(sb, "%s<", v.Family.Name)
		for i, arg := range v.TypeArguments {
			if i > 0 {
				sb.WriteString(", ")
			}
			showType(sb, arg, seen, depth+1)
		}
		sb.WriteString(">")
	case *LocalType:
		fmt.Fprintf(sb, "*local-%s*", v.Name)
	case *PrimType:
		sb.WriteString(v.Kind.String())
	case *SingletonType:
		if v.IsString {
			fmt.Fprintf(sb, "%q", v.StringValue)
		} else {
			fmt.Fprintf(sb, "%v", v.BoolValue)
		}
	case *FunctionType:
		sb.WriteString("(")
		showPack(sb, v.ArgTypes, seen, depth+1)
		sb.WriteString(") -> (")
		showPack(sb, v.RetTypes, seen, depth+1)
		sb.WriteString(")")
	case *TableType:
		if v.Name != "" {
			sb.WriteString(v.Name)
			return
		}
		if v.SyntheticName != "" {
			sb.WriteString(v.SyntheticName)
			return
		}
		sb.WriteString("{")
		names := make([]string, 0, len(v.Props))
		for name := range v.Props {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s: ", name)
			prop := v.Props[name]
			if prop.ReadTy != nil {
				showType(sb, prop.ReadTy, seen, depth+1)
			} else {
				showType(sb, prop.WriteTy, seen, depth+1)
			}
		}
		if v.Indexer != nil {
			if len(names) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("[")
			showType(sb, v.Indexer.IndexType, seen, depth+1)
			sb.WriteString("]: ")
			showType(sb, v.Indexer.IndexResultType, seen, depth+1)
		}
		sb.WriteString("}")
	case *MetatableType:
		sb.WriteString("setmetatable(")
		showType(sb, v.Table, seen, depth+1)
		sb.WriteString(", ")
		showType(sb, v.Metatable, seen, depth+1)
		sb.WriteString(")")
	case *ClassType:
		sb.WriteString(v.Name)
	case *UnionType:
		for i, opt := range v.Options {
			if i > 0 {
				sb.WriteString(" | ")
			}
			showType(sb, opt, seen, depth+1)
		}
	case *IntersectionType:
		for i, part := range v.Parts {
			if i > 0 {
				sb.WriteString(" & ")
			}
			showType(sb, part, seen, depth+1)
		}
	case *NeverType:
		sb.WriteString("never")
	case *AnyType:
		sb.WriteString("any")
	case *UnknownType:
		sb.WriteString("unknown")
	case *ErrorType:
		sb.WriteString("*error-type*")
	default:
		fmt.Fprintf(sb, "<unprintable %T>", v)
	}
}

func showPack(sb *strings.Builder, tp TypePackId, seen map[TypeId]struct{}, depth int) {
	if depth > showDepthLimit {
		sb.WriteString("...")
		return
	}
	tp = FollowPack(tp)
	switch v := tp.variant.(type) {
	case *ListPack:
		for i, head := range v.Head {
			if i > 0 {
				sb.WriteString(", ")
			}
			showType(sb, head, seen, depth)
		}
		if v.Tail != nil {
			if len(v.Head) > 0 {
				sb.WriteString(", ")
			}
			showPack(sb, v.Tail, seen, depth)
		}
	case *VariadicPack:
		sb.WriteString("...")
		showType(sb, v.Ty, seen, depth)
	case *GenericPack:
		fmt.Fprintf(sb, "%s...", v.Name)
	case *FreePack:
		fmt.Fprintf(sb, "'tp%d...", tp.seq)
	case *BlockedPack:
		fmt.Fprintf(sb, "*blocked-pack-%d*", tp.seq)
	case *ErrorPack:
		sb.WriteString("*error-pack*")
	case *FamilyInstancePack:
		fmt.Fprintf(sb, "%s<...>", v.Family.Name)
	default:
		fmt.Fprintf(sb, "<unprintable %T>", v)
	}
}
