// Package templates loads the code-defined page templates and their content
// blocks from a YAML catalog and applies them to a store.
//
// A catalog looks like:
//
//	templates:
//	  - name: Landing
//	    blocks:
//	      - key: hero_title
//	      - key: body
//	        kind: richtext
//
// Block names default to the humanized key ("hero_title" becomes
// "Hero Title"). Apply is idempotent: templates and blocks that already
// exist are left as they are.
package templates
