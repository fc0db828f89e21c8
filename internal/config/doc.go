// Package config loads route-tree files for the waypoint command.
//
// A tree is YAML or JSON, chosen by file extension. The root router's
// routes sit at the top level; child routers are declared under routers
// and attached to a root or child route by a bind entry.
//
// # File Structure
//
//	engine: tokens
//	match_mode: accumulate
//	initial: [/users/7/info]
//	routes:
//	  - name: user
//	    pattern: /users/:id/:tab?
//	    bind:
//	      - param: tab
//	        router: tabs
//	  - name: settings
//	    pattern: /settings
//	merges:
//	  - name: anywhere
//	    routes: [user, settings]
//	routers:
//	  - name: tabs
//	    routes:
//	      - name: info
//	        pattern: /info
//	log:
//	  level: debug
//	serve:
//	  addr: :8080
//
// # Usage
//
//	cfg, err := config.Load("tree.yaml")
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//	fmt.Println(cfg)
package config
